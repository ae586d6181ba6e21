package services

import (
	"context"

	"github.com/deckforge/deckforge-backend/internal/types"
)

// CardDetailsResolver looks up baseline card metadata by exact name.
// A (nil, nil) return means the card is unknown; the caller records it as
// a per-card failure without aborting the run.
type CardDetailsResolver interface {
	ResolveCardDetails(ctx context.Context, cardName string) (*types.CardDetails, error)
}

// CardImageResolver looks up a card's id and frame image URL at deck
// creation time. (nil, nil) means unresolved.
type CardImageResolver interface {
	ResolveCardImage(ctx context.Context, cardName string) (*types.ResolvedCardImage, error)
}

// DeckThemer performs the single batched text-theming call for a run.
type DeckThemer interface {
	ThemeDeck(ctx context.Context, themeUniverse, artStyleBrief string, cards []types.ThemeCandidate) ([]types.ThemedCardPayload, error)
}

// ArtGenerator turns an image prompt into an image reference (URL or
// data URL).
type ArtGenerator interface {
	GenerateArt(ctx context.Context, prompt string) (string, error)
}

// ImageFetcher loads raw bytes for an image reference.
type ImageFetcher interface {
	FetchImageBytes(ctx context.Context, ref string) ([]byte, error)
}

// CardComposer lays generated art and a rendered title onto a frame image
// and returns the finished image as a data URL.
type CardComposer interface {
	Compose(frame, art []byte, title string) (string, error)
}
