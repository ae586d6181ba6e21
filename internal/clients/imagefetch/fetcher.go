package imagefetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/utils"
)

// Fetcher loads raw image bytes from an image reference, which is either
// an http(s) URL or a base64 data URL (generated art is often returned
// inline rather than hosted).
type Fetcher struct {
	log        *logger.Logger
	httpClient *http.Client
	maxBytes   int64
}

func NewFetcher(log *logger.Logger) *Fetcher {
	timeoutSec := utils.GetEnvAsInt("IMAGE_FETCH_TIMEOUT_SECONDS", 30, log)
	maxMB := utils.GetEnvAsInt("IMAGE_FETCH_MAX_MEGABYTES", 32, log)
	return &Fetcher{
		log:        log.With("client", "ImageFetcher"),
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxBytes:   int64(maxMB) << 20,
	}
}

const dataURLPrefix = "data:"

func decodeDataURL(source string) ([]byte, error) {
	rest := source[len(dataURLPrefix):]
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return nil, errors.New("malformed data URL")
	}
	meta, payload := rest[:sep], rest[sep+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("data URL is not base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URL payload: %w", err)
	}
	return raw, nil
}

func (f *Fetcher) FetchImageBytes(ctx context.Context, ref string) ([]byte, error) {
	source := strings.TrimSpace(ref)
	if source == "" {
		return nil, errors.New("image source is empty")
	}

	if strings.HasPrefix(source, dataURLPrefix) {
		return decodeDataURL(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image (%d)", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > f.maxBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", f.maxBytes)
	}
	return raw, nil
}
