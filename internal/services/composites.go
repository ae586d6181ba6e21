package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/platform/apierr"
	"github.com/deckforge/deckforge-backend/internal/repos"
	"github.com/deckforge/deckforge-backend/internal/types"
)

const fallbackCompositeError = "Unknown composite generation error."

type CompositeInput struct {
	DeckID           uuid.UUID
	OriginalCardName string
	ThemedName       string
	ForceRegenerate  bool
}

type CompositeResult struct {
	DeckID           uuid.UUID `json:"deckId"`
	OriginalCardName string    `json:"originalCardName"`
	Started          bool      `json:"started"`
	CompositeURL     string    `json:"compositeUrl,omitempty"`
}

type CompositeService interface {
	// GenerateForCard persists the edited title, then rebuilds the card
	// composite in the background. Missing inputs fail synchronously and
	// are also recorded on the row.
	GenerateForCard(ctx context.Context, input CompositeInput) (*CompositeResult, error)
}

type compositeService struct {
	db           *gorm.DB
	log          *logger.Logger
	deckRepo     repos.DeckRepo
	deckCardRepo repos.DeckCardRepo
	themedRepo   repos.ThemedCardRepo
	fetcher      ImageFetcher
	composer     CardComposer

	jobs sync.WaitGroup
}

func NewCompositeService(db *gorm.DB, log *logger.Logger, deckRepo repos.DeckRepo, deckCardRepo repos.DeckCardRepo, themedRepo repos.ThemedCardRepo, fetcher ImageFetcher, composer CardComposer) CompositeService {
	return &compositeService{
		db:           db,
		log:          log.With("service", "CompositeService"),
		deckRepo:     deckRepo,
		deckCardRepo: deckCardRepo,
		themedRepo:   themedRepo,
		fetcher:      fetcher,
		composer:     composer,
	}
}

func (cs *compositeService) GenerateForCard(ctx context.Context, input CompositeInput) (*CompositeResult, error) {
	originalCardName := strings.TrimSpace(input.OriginalCardName)
	themedName := strings.TrimSpace(input.ThemedName)

	if input.DeckID == uuid.Nil {
		return nil, apierr.Invalid("invalid-deck-id", "Deck id is required.")
	}
	if originalCardName == "" {
		return nil, apierr.Invalid("invalid-card-name", "Original card name is required.")
	}
	if themedName == "" {
		return nil, apierr.Invalid("invalid-themed-name", "Themed card title is required.")
	}

	deck, err := cs.deckRepo.GetByID(ctx, nil, input.DeckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, apierr.NotFound("deck-not-found", "Deck not found.")
	}
	if deck.ThemingStatus != types.DeckThemingCompleted {
		return nil, apierr.Precondition("theming-not-complete", "Deck theming must be completed before generating images.")
	}

	card, err := cs.themedRepo.GetByDeckAndName(ctx, nil, input.DeckID, originalCardName)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, apierr.NotFound("themed-card-not-found", "Themed card not found.")
	}
	if card.Status != types.ThemedCardGenerated {
		return nil, apierr.Precondition("themed-card-not-ready", "Themed card text is not ready for compositing.")
	}

	// The edited title sticks even when the compose is skipped or fails.
	titleChanged := themedName != card.ThemedName
	if titleChanged {
		if err := cs.themedRepo.UpdateByDeckAndName(ctx, nil, input.DeckID, originalCardName, map[string]any{
			"themed_name": themedName,
		}); err != nil {
			return nil, err
		}
	}

	// A running job already holds the claim; the title edit above still
	// sticks, but nothing new starts and no failure may be recorded.
	if card.CompositeStatus == types.AssetGenerating {
		return &CompositeResult{
			DeckID:           input.DeckID,
			OriginalCardName: originalCardName,
			Started:          false,
			CompositeURL:     card.CompositeURL,
		}, nil
	}

	// A composite baked with the current title does not need redoing.
	if card.CompositeURL != "" && !titleChanged && !input.ForceRegenerate {
		return &CompositeResult{
			DeckID:           input.DeckID,
			OriginalCardName: originalCardName,
			Started:          false,
			CompositeURL:     card.CompositeURL,
		}, nil
	}

	baseCard, err := cs.deckCardRepo.GetByDeckAndName(ctx, nil, input.DeckID, originalCardName)
	if err != nil {
		return nil, err
	}
	if baseCard == nil || strings.TrimSpace(baseCard.ImageURL) == "" {
		message := "Missing base Scryfall card image."
		cs.recordCompositeFailure(ctx, input.DeckID, originalCardName, message)
		return nil, apierr.Precondition("base-image-missing", message)
	}
	if card.ImageStatus != types.AssetGenerated || strings.TrimSpace(card.ImageURL) == "" {
		message := "Generate themed art before creating a themed card image."
		cs.recordCompositeFailure(ctx, input.DeckID, originalCardName, message)
		return nil, apierr.Precondition("themed-art-missing", message)
	}

	ok, err := cs.themedRepo.ClaimCompositeGenerating(ctx, nil, input.DeckID, originalCardName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &CompositeResult{
			DeckID:           input.DeckID,
			OriginalCardName: originalCardName,
			Started:          false,
			CompositeURL:     card.CompositeURL,
		}, nil
	}

	job := compositeJob{
		originalCardName: originalCardName,
		themedName:       themedName,
		frameRef:         baseCard.ImageURL,
		artRef:           card.ImageURL,
	}
	cs.jobs.Add(1)
	go func() {
		defer cs.jobs.Done()
		cs.runCompositeJob(context.Background(), input.DeckID, job)
	}()

	return &CompositeResult{
		DeckID:           input.DeckID,
		OriginalCardName: originalCardName,
		Started:          true,
		CompositeURL:     card.CompositeURL,
	}, nil
}

type compositeJob struct {
	originalCardName string
	themedName       string
	frameRef         string
	artRef           string
}

// runCompositeJob fetches both source images, composes the card, and
// records the outcome on the row. Nothing propagates out of the job.
func (cs *compositeService) runCompositeJob(ctx context.Context, deckID uuid.UUID, job compositeJob) {
	defer func() {
		if r := recover(); r != nil {
			cs.log.Error("Composite job panic", "deck_id", deckID, "card", job.originalCardName, "panic", r)
			cs.recordCompositeFailure(ctx, deckID, job.originalCardName, fmt.Sprintf("panic: %v", r))
		}
	}()

	frame, err := cs.fetcher.FetchImageBytes(ctx, job.frameRef)
	if err != nil {
		cs.failCompositeJob(ctx, deckID, job.originalCardName, fmt.Errorf("failed to fetch base card image: %w", err))
		return
	}
	art, err := cs.fetcher.FetchImageBytes(ctx, job.artRef)
	if err != nil {
		cs.failCompositeJob(ctx, deckID, job.originalCardName, fmt.Errorf("failed to fetch themed art: %w", err))
		return
	}

	compositeURL, err := cs.composer.Compose(frame, art, job.themedName)
	if err != nil {
		cs.failCompositeJob(ctx, deckID, job.originalCardName, err)
		return
	}

	if err := cs.themedRepo.UpdateByDeckAndName(ctx, nil, deckID, job.originalCardName, map[string]any{
		"composite_status":     types.AssetGenerated,
		"composite_url":        compositeURL,
		"composite_error":      "",
		"composite_updated_at": time.Now(),
	}); err != nil {
		cs.log.Error("Failed to record composite", "deck_id", deckID, "card", job.originalCardName, "error", err)
	}
	if err := cs.deckRepo.TouchUpdatedAt(ctx, nil, deckID); err != nil {
		cs.log.Warn("Failed to touch deck after composite job", "deck_id", deckID, "error", err)
	}
}

func (cs *compositeService) failCompositeJob(ctx context.Context, deckID uuid.UUID, originalCardName string, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = fallbackCompositeError
	}
	if errors.Is(err, ErrUnsupportedLayout) {
		cs.log.Warn("Frame layout unsupported", "deck_id", deckID, "card", originalCardName, "error", err)
	} else {
		cs.log.Warn("Composite generation failed", "deck_id", deckID, "card", originalCardName, "error", err)
	}
	cs.recordCompositeFailure(ctx, deckID, originalCardName, message)
}

func (cs *compositeService) recordCompositeFailure(ctx context.Context, deckID uuid.UUID, originalCardName, message string) {
	if err := cs.themedRepo.UpdateByDeckAndName(ctx, nil, deckID, originalCardName, map[string]any{
		"composite_status":     types.AssetFailed,
		"composite_error":      message,
		"composite_updated_at": time.Now(),
	}); err != nil {
		cs.log.Error("Failed to record composite failure", "deck_id", deckID, "card", originalCardName, "error", err)
	}
	if err := cs.deckRepo.TouchUpdatedAt(ctx, nil, deckID); err != nil {
		cs.log.Warn("Failed to touch deck after composite job", "deck_id", deckID, "error", err)
	}
}
