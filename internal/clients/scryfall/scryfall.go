package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/types"
	"github.com/deckforge/deckforge-backend/internal/utils"
)

// Client looks up card metadata and frame images by exact card name.
// Lookup misses (unknown name, upstream error) are reported as (nil, nil):
// a card the database does not know is an expected condition, not a fault.
type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) *Client {
	baseURL := utils.GetEnv("SCRYFALL_BASE_URL", "https://api.scryfall.com", log)
	timeoutSec := utils.GetEnvAsInt("SCRYFALL_TIMEOUT_SECONDS", 20, log)
	return &Client{
		log:        log.With("client", "ScryfallClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

type imageURIs struct {
	Normal string `json:"normal"`
}

type cardFace struct {
	OracleText string     `json:"oracle_text"`
	TypeLine   string     `json:"type_line"`
	ManaCost   string     `json:"mana_cost"`
	ImageURIs  *imageURIs `json:"image_uris"`
}

type namedCardResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	OracleText string     `json:"oracle_text"`
	TypeLine   string     `json:"type_line"`
	ManaCost   string     `json:"mana_cost"`
	ImageURIs  *imageURIs `json:"image_uris"`
	CardFaces  []cardFace `json:"card_faces"`
}

func (c *Client) fetchNamed(ctx context.Context, cardName string) (*namedCardResponse, error) {
	endpoint := fmt.Sprintf("%s/cards/named?exact=%s", c.baseURL, url.QueryEscape(cardName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Scryfall request failed", "card", cardName, "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug("Scryfall lookup miss", "card", cardName, "status", resp.StatusCode)
		return nil, nil
	}

	var payload namedCardResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Warn("Scryfall response decode failed", "card", cardName, "error", err)
		return nil, nil
	}
	return &payload, nil
}

// ResolveCardDetails returns the theming-relevant metadata for one card
// name, or (nil, nil) when the card cannot be resolved.
func (c *Client) ResolveCardDetails(ctx context.Context, cardName string) (*types.CardDetails, error) {
	payload, err := c.fetchNamed(ctx, cardName)
	if err != nil || payload == nil {
		return nil, err
	}

	oracleText := payload.OracleText
	typeLine := payload.TypeLine
	manaCost := payload.ManaCost
	if typeLine == "" && len(payload.CardFaces) > 0 {
		oracleText = payload.CardFaces[0].OracleText
		typeLine = payload.CardFaces[0].TypeLine
		manaCost = payload.CardFaces[0].ManaCost
	}

	return &types.CardDetails{
		OracleText:  oracleText,
		TypeLine:    typeLine,
		ManaCost:    manaCost,
		IsLegendary: strings.Contains(typeLine, "Legendary"),
		IsBasicLand: strings.Contains(typeLine, "Basic Land"),
	}, nil
}

// ResolveCardImage returns the card's Scryfall id and frame image URL, or
// (nil, nil) when the card cannot be resolved.
func (c *Client) ResolveCardImage(ctx context.Context, cardName string) (*types.ResolvedCardImage, error) {
	payload, err := c.fetchNamed(ctx, cardName)
	if err != nil || payload == nil {
		return nil, err
	}

	imageURL := ""
	if payload.ImageURIs != nil {
		imageURL = payload.ImageURIs.Normal
	}
	if imageURL == "" {
		for _, face := range payload.CardFaces {
			if face.ImageURIs != nil && face.ImageURIs.Normal != "" {
				imageURL = face.ImageURIs.Normal
				break
			}
		}
	}

	return &types.ResolvedCardImage{
		ScryfallID: payload.ID,
		ImageURL:   imageURL,
	}, nil
}
