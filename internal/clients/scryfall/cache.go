package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/types"
	"github.com/deckforge/deckforge-backend/internal/utils"
)

const detailsCacheTTL = 24 * time.Hour

// CachedClient is a Redis read-through cache in front of Client. Card
// metadata is effectively immutable, so a long TTL is safe. Cache errors
// degrade to direct lookups.
type CachedClient struct {
	log   *logger.Logger
	inner *Client
	rdb   *goredis.Client
}

// NewCachedClient connects to REDIS_ADDR. The caller decides whether a
// cache is wanted at all; construction fails when Redis is unreachable.
func NewCachedClient(log *logger.Logger, inner *Client) (*CachedClient, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &CachedClient{
		log:   log.With("client", "ScryfallCachedClient"),
		inner: inner,
		rdb:   rdb,
	}, nil
}

func detailsKey(cardName string) string {
	return "scryfall:details:" + strings.ToLower(strings.TrimSpace(cardName))
}

func imageKey(cardName string) string {
	return "scryfall:image:" + strings.ToLower(strings.TrimSpace(cardName))
}

func (cc *CachedClient) ResolveCardDetails(ctx context.Context, cardName string) (*types.CardDetails, error) {
	key := detailsKey(cardName)
	if raw, err := cc.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached types.CardDetails
		if unmarshalErr := json.Unmarshal(raw, &cached); unmarshalErr == nil {
			return &cached, nil
		}
	}

	details, err := cc.inner.ResolveCardDetails(ctx, cardName)
	if err != nil || details == nil {
		return details, err
	}

	if raw, marshalErr := json.Marshal(details); marshalErr == nil {
		if setErr := cc.rdb.Set(ctx, key, raw, detailsCacheTTL).Err(); setErr != nil {
			cc.log.Warn("Failed to cache card details (ignored)", "card", cardName, "error", setErr)
		}
	}
	return details, nil
}

func (cc *CachedClient) ResolveCardImage(ctx context.Context, cardName string) (*types.ResolvedCardImage, error) {
	key := imageKey(cardName)
	if raw, err := cc.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached types.ResolvedCardImage
		if unmarshalErr := json.Unmarshal(raw, &cached); unmarshalErr == nil {
			return &cached, nil
		}
	}

	resolved, err := cc.inner.ResolveCardImage(ctx, cardName)
	if err != nil || resolved == nil {
		return resolved, err
	}

	if raw, marshalErr := json.Marshal(resolved); marshalErr == nil {
		if setErr := cc.rdb.Set(ctx, key, raw, detailsCacheTTL).Err(); setErr != nil {
			cc.log.Warn("Failed to cache card image ref (ignored)", "card", cardName, "error", setErr)
		}
	}
	return resolved, nil
}

func (cc *CachedClient) Close() error {
	return cc.rdb.Close()
}
