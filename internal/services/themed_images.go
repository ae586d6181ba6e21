package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/platform/apierr"
	"github.com/deckforge/deckforge-backend/internal/repos"
	"github.com/deckforge/deckforge-backend/internal/types"
)

// imageWorkerPoolSize bounds concurrent art jobs within one bulk call.
// Bulk calls racing single-card calls are only coordinated per row, by the
// claim write; total concurrency across call types is unbounded.
const imageWorkerPoolSize = 3

const fallbackImageError = "Unknown image generation error."

type BulkImageResult struct {
	DeckID                 uuid.UUID `json:"deckId"`
	StartedCount           int       `json:"startedCount"`
	AlreadyGeneratingCount int       `json:"alreadyGeneratingCount"`
	SkippedCount           int       `json:"skippedCount"`
}

type SingleImageInput struct {
	DeckID            uuid.UUID
	OriginalCardName  string
	ThemedName        string
	ThemedImagePrompt string
	ForceRegenerate   bool
}

type SingleImageResult struct {
	DeckID           uuid.UUID `json:"deckId"`
	OriginalCardName string    `json:"originalCardName"`
	Started          bool      `json:"started"`
	ImageURL         string    `json:"imageUrl,omitempty"`
}

type ThemedImageService interface {
	// GenerateAll claims every eligible row synchronously, in card order,
	// then generates art in the background through a fixed-size worker
	// pool. The counts reflect the claim phase only.
	GenerateAll(ctx context.Context, deckID uuid.UUID, forceRegenerate bool) (*BulkImageResult, error)

	// GenerateForCard persists the edited title and prompt at claim time
	// and starts a single background art job. A row already generating
	// reports started=false.
	GenerateForCard(ctx context.Context, input SingleImageInput) (*SingleImageResult, error)
}

type themedImageService struct {
	db         *gorm.DB
	log        *logger.Logger
	deckRepo   repos.DeckRepo
	themedRepo repos.ThemedCardRepo
	artGen     ArtGenerator

	jobs sync.WaitGroup
}

func NewThemedImageService(db *gorm.DB, log *logger.Logger, deckRepo repos.DeckRepo, themedRepo repos.ThemedCardRepo, artGen ArtGenerator) ThemedImageService {
	return &themedImageService{
		db:         db,
		log:        log.With("service", "ThemedImageService"),
		deckRepo:   deckRepo,
		themedRepo: themedRepo,
		artGen:     artGen,
	}
}

// shouldGenerateImage is the eligibility rule: theming must have produced
// text, a prompt must exist, and existing art is only redone when forced.
func shouldGenerateImage(card *types.ThemedCard, forceRegenerate bool) bool {
	if card.Status != types.ThemedCardGenerated {
		return false
	}
	if strings.TrimSpace(card.ThemedImagePrompt) == "" {
		return false
	}
	if forceRegenerate {
		return true
	}
	return card.ImageURL == ""
}

func (tis *themedImageService) requireCompletedDeck(ctx context.Context, deckID uuid.UUID) (*types.Deck, error) {
	if deckID == uuid.Nil {
		return nil, apierr.Invalid("invalid-deck-id", "Deck id is required.")
	}
	deck, err := tis.deckRepo.GetByID(ctx, nil, deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, apierr.NotFound("deck-not-found", "Deck not found.")
	}
	if deck.ThemingStatus != types.DeckThemingCompleted {
		return nil, apierr.Precondition("theming-not-complete", "Deck theming must be completed before generating images.")
	}
	return deck, nil
}

type artJob struct {
	originalCardName string
	prompt           string
}

func (tis *themedImageService) GenerateAll(ctx context.Context, deckID uuid.UUID, forceRegenerate bool) (*BulkImageResult, error) {
	if _, err := tis.requireCompletedDeck(ctx, deckID); err != nil {
		return nil, err
	}

	cards, err := tis.themedRepo.ListByDeck(ctx, nil, deckID)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, apierr.Precondition("themed-cards-missing", "No themed cards found for this deck.")
	}

	result := &BulkImageResult{DeckID: deckID}
	var claimed []artJob

	for _, card := range cards {
		if !shouldGenerateImage(card, forceRegenerate) {
			result.SkippedCount++
			continue
		}
		ok, claimErr := tis.themedRepo.ClaimImageGenerating(ctx, nil, deckID, card.OriginalCardName, nil)
		if claimErr != nil {
			return nil, claimErr
		}
		if !ok {
			result.AlreadyGeneratingCount++
			continue
		}
		claimed = append(claimed, artJob{
			originalCardName: card.OriginalCardName,
			prompt:           card.ThemedImagePrompt,
		})
		result.StartedCount++
	}

	if len(claimed) > 0 {
		tis.jobs.Add(1)
		go func() {
			defer tis.jobs.Done()
			// The RPC has already returned; the pool must outlive its context.
			bg := context.Background()

			g := new(errgroup.Group)
			g.SetLimit(imageWorkerPoolSize)
			for _, job := range claimed {
				job := job
				g.Go(func() error {
					tis.runArtJob(bg, deckID, job)
					return nil
				})
			}
			_ = g.Wait()
		}()
	}

	return result, nil
}

func (tis *themedImageService) GenerateForCard(ctx context.Context, input SingleImageInput) (*SingleImageResult, error) {
	originalCardName := strings.TrimSpace(input.OriginalCardName)
	themedName := strings.TrimSpace(input.ThemedName)
	themedImagePrompt := strings.TrimSpace(input.ThemedImagePrompt)

	if originalCardName == "" {
		return nil, apierr.Invalid("invalid-card-name", "Original card name is required.")
	}
	if themedName == "" {
		return nil, apierr.Invalid("invalid-themed-name", "Themed card title is required.")
	}
	if themedImagePrompt == "" {
		return nil, apierr.Invalid("invalid-image-prompt", "Image prompt is required.")
	}
	if _, err := tis.requireCompletedDeck(ctx, input.DeckID); err != nil {
		return nil, err
	}

	card, err := tis.themedRepo.GetByDeckAndName(ctx, nil, input.DeckID, originalCardName)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, apierr.NotFound("themed-card-not-found", "Themed card not found.")
	}

	edited := *card
	edited.ThemedName = themedName
	edited.ThemedImagePrompt = themedImagePrompt

	if !shouldGenerateImage(&edited, input.ForceRegenerate) {
		if err := tis.themedRepo.UpdateByDeckAndName(ctx, nil, input.DeckID, originalCardName, map[string]any{
			"themed_name":         themedName,
			"themed_image_prompt": themedImagePrompt,
		}); err != nil {
			return nil, err
		}
		return &SingleImageResult{
			DeckID:           input.DeckID,
			OriginalCardName: originalCardName,
			Started:          false,
			ImageURL:         card.ImageURL,
		}, nil
	}

	ok, err := tis.themedRepo.ClaimImageGenerating(ctx, nil, input.DeckID, originalCardName, map[string]any{
		"themed_name":         themedName,
		"themed_image_prompt": themedImagePrompt,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return &SingleImageResult{
			DeckID:           input.DeckID,
			OriginalCardName: originalCardName,
			Started:          false,
			ImageURL:         card.ImageURL,
		}, nil
	}

	job := artJob{originalCardName: originalCardName, prompt: themedImagePrompt}
	tis.jobs.Add(1)
	go func() {
		defer tis.jobs.Done()
		tis.runArtJob(context.Background(), input.DeckID, job)
	}()

	return &SingleImageResult{
		DeckID:           input.DeckID,
		OriginalCardName: originalCardName,
		Started:          true,
		ImageURL:         card.ImageURL,
	}, nil
}

// runArtJob executes one claimed art generation. Failures, including
// panics from the generator, stay on the row; nothing propagates.
func (tis *themedImageService) runArtJob(ctx context.Context, deckID uuid.UUID, job artJob) {
	defer func() {
		if r := recover(); r != nil {
			tis.log.Error("Art job panic", "deck_id", deckID, "card", job.originalCardName, "panic", r)
			tis.recordArtFailure(ctx, deckID, job.originalCardName, fmt.Sprintf("panic: %v", r))
		}
	}()

	imageURL, err := tis.artGen.GenerateArt(ctx, job.prompt)
	if err != nil {
		message := strings.TrimSpace(err.Error())
		if message == "" {
			message = fallbackImageError
		}
		tis.log.Warn("Art generation failed", "deck_id", deckID, "card", job.originalCardName, "error", err)
		tis.recordArtFailure(ctx, deckID, job.originalCardName, message)
		return
	}

	now := time.Now()
	// Fresh art invalidates any composite built from the old art.
	if err := tis.themedRepo.UpdateByDeckAndName(ctx, nil, deckID, job.originalCardName, map[string]any{
		"image_status":         types.AssetGenerated,
		"image_url":            imageURL,
		"image_error":          "",
		"image_updated_at":     now,
		"composite_status":     types.AssetIdle,
		"composite_url":        "",
		"composite_error":      "",
		"composite_updated_at": now,
	}); err != nil {
		tis.log.Error("Failed to record generated art", "deck_id", deckID, "card", job.originalCardName, "error", err)
	}
	if err := tis.deckRepo.TouchUpdatedAt(ctx, nil, deckID); err != nil {
		tis.log.Warn("Failed to touch deck after art job", "deck_id", deckID, "error", err)
	}
}

func (tis *themedImageService) recordArtFailure(ctx context.Context, deckID uuid.UUID, originalCardName, message string) {
	if err := tis.themedRepo.UpdateByDeckAndName(ctx, nil, deckID, originalCardName, map[string]any{
		"image_status":     types.AssetFailed,
		"image_error":      message,
		"image_updated_at": time.Now(),
	}); err != nil {
		tis.log.Error("Failed to record art failure", "deck_id", deckID, "card", originalCardName, "error", err)
	}
	if err := tis.deckRepo.TouchUpdatedAt(ctx, nil, deckID); err != nil {
		tis.log.Warn("Failed to touch deck after art job", "deck_id", deckID, "error", err)
	}
}
