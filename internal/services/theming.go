package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/platform/apierr"
	"github.com/deckforge/deckforge-backend/internal/repos"
	"github.com/deckforge/deckforge-backend/internal/types"
)

const (
	themedConceptWordLimit     = 30
	themedImagePromptWordLimit = 35

	constraintBasicLandUnchanged = "basic-land-unchanged"
	constraintLegendarySource    = "legendary-source"
)

type ThemingStartInput struct {
	DeckID                 uuid.UUID
	ThemeUniverse          string
	ArtStyleBrief          string
	ConfirmDiscardPrevious bool
}

type ThemingStartResult struct {
	DeckID        uuid.UUID               `json:"deckId"`
	ThemingStatus types.DeckThemingStatus `json:"themingStatus"`
}

type ThemingService interface {
	// StartTheming drives one full theming run to completion before it
	// returns. Per-card failures (missing metadata, missing model output)
	// become failed rows; a fault in the run itself marks the deck failed
	// and is returned to the caller.
	StartTheming(ctx context.Context, input ThemingStartInput) (*ThemingStartResult, error)
}

type themingService struct {
	db         *gorm.DB
	log        *logger.Logger
	deckRepo   repos.DeckRepo
	cardRepo   repos.DeckCardRepo
	themedRepo repos.ThemedCardRepo
	resolver   CardDetailsResolver
	themer     DeckThemer
}

func NewThemingService(db *gorm.DB, log *logger.Logger, deckRepo repos.DeckRepo, cardRepo repos.DeckCardRepo, themedRepo repos.ThemedCardRepo, resolver CardDetailsResolver, themer DeckThemer) ThemingService {
	return &themingService{
		db:         db,
		log:        log.With("service", "ThemingService"),
		deckRepo:   deckRepo,
		cardRepo:   cardRepo,
		themedRepo: themedRepo,
		resolver:   resolver,
		themer:     themer,
	}
}

type themeCandidate struct {
	originalCardName string
	quantity         int
	details          *types.CardDetails
}

func (ts *themingService) StartTheming(ctx context.Context, input ThemingStartInput) (*ThemingStartResult, error) {
	themeUniverse := strings.TrimSpace(input.ThemeUniverse)
	artStyleBrief := strings.TrimSpace(input.ArtStyleBrief)

	if input.DeckID == uuid.Nil {
		return nil, apierr.Invalid("invalid-deck-id", "Deck id is required.")
	}
	if themeUniverse == "" {
		return nil, apierr.Invalid("invalid-theme-universe", "Theme universe is required.")
	}
	if artStyleBrief == "" {
		return nil, apierr.Invalid("invalid-art-style-brief", "Art style brief is required.")
	}

	deck, err := ts.deckRepo.GetByID(ctx, nil, input.DeckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, apierr.NotFound("deck-not-found", "Deck not found.")
	}
	if deck.ThemingStatus == types.DeckThemingRunning {
		return nil, apierr.Conflict("theming-already-running", "Deck theming is already running for this deck.")
	}

	existingCount, err := ts.themedRepo.CountByDeck(ctx, nil, input.DeckID)
	if err != nil {
		return nil, err
	}
	if existingCount > 0 {
		if !input.ConfirmDiscardPrevious {
			return nil, apierr.Conflict("theming-confirmation-required", "Confirm discarding previous themed cards before re-theming.")
		}
		if err := ts.themedRepo.DeleteByDeck(ctx, nil, input.DeckID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if err := ts.deckRepo.UpdateFields(ctx, nil, input.DeckID, map[string]any{
		"theming_status":       types.DeckThemingRunning,
		"theme_universe":       themeUniverse,
		"art_style_brief":      artStyleBrief,
		"theming_started_at":   now,
		"theming_completed_at": nil,
		"theming_error":        "",
	}); err != nil {
		return nil, err
	}

	if err := ts.runTheming(ctx, input.DeckID, themeUniverse, artStyleBrief); err != nil {
		if failErr := ts.deckRepo.UpdateFields(ctx, nil, input.DeckID, map[string]any{
			"theming_status":       types.DeckThemingFailed,
			"theming_error":        err.Error(),
			"theming_completed_at": nil,
		}); failErr != nil {
			ts.log.Error("Failed to record theming failure", "deck_id", input.DeckID, "error", failErr)
		}
		return nil, apierr.New(500, "theming-failed", err)
	}

	return &ThemingStartResult{
		DeckID:        input.DeckID,
		ThemingStatus: types.DeckThemingCompleted,
	}, nil
}

func (ts *themingService) runTheming(ctx context.Context, deckID uuid.UUID, themeUniverse, artStyleBrief string) error {
	deckCards, err := ts.cardRepo.ListByDeck(ctx, nil, deckID)
	if err != nil {
		return err
	}
	if len(deckCards) == 0 {
		return apierr.Invalid("empty-deck", "Cannot theme an empty deck.")
	}

	now := time.Now()
	var draftRows []*types.ThemedCard
	var candidates []themeCandidate

	for _, card := range deckCards {
		details, resolveErr := ts.resolver.ResolveCardDetails(ctx, card.Name)
		if resolveErr != nil {
			ts.log.Warn("Card metadata resolution error", "card", card.Name, "error", resolveErr)
			details = nil
		}

		if details == nil {
			draftRows = append(draftRows, &types.ThemedCard{
				DeckID:             deckID,
				OriginalCardName:   card.Name,
				Quantity:           card.Quantity,
				Status:             types.ThemedCardFailed,
				ErrorMessage:       "Scryfall metadata unavailable.",
				ConstraintsApplied: datatypes.JSONSlice[string]{},
				ImageStatus:        types.AssetIdle,
				CompositeStatus:    types.AssetIdle,
				CreatedAt:          now,
				UpdatedAt:          now,
			})
			continue
		}

		if details.IsBasicLand {
			draftRows = append(draftRows, &types.ThemedCard{
				DeckID:             deckID,
				OriginalCardName:   card.Name,
				Quantity:           card.Quantity,
				IsBasicLand:        true,
				Status:             types.ThemedCardSkipped,
				ThemedName:         card.Name,
				ThemedConcept:      "Basic land kept unchanged.",
				ConstraintsApplied: datatypes.JSONSlice[string]{constraintBasicLandUnchanged},
				ImageStatus:        types.AssetIdle,
				CompositeStatus:    types.AssetIdle,
				CreatedAt:          now,
				UpdatedAt:          now,
			})
			continue
		}

		draftRows = append(draftRows, &types.ThemedCard{
			DeckID:             deckID,
			OriginalCardName:   card.Name,
			Quantity:           card.Quantity,
			Status:             types.ThemedCardPending,
			ConstraintsApplied: datatypes.JSONSlice[string]{},
			ImageStatus:        types.AssetIdle,
			CompositeStatus:    types.AssetIdle,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		candidates = append(candidates, themeCandidate{
			originalCardName: card.Name,
			quantity:         card.Quantity,
			details:          details,
		})
	}

	if _, err := ts.themedRepo.Create(ctx, nil, draftRows); err != nil {
		return err
	}

	if len(candidates) > 0 {
		descriptors := make([]types.ThemeCandidate, 0, len(candidates))
		for _, candidate := range candidates {
			descriptors = append(descriptors, types.ThemeCandidate{
				OriginalCardName: candidate.originalCardName,
				Quantity:         candidate.quantity,
				OracleText:       candidate.details.OracleText,
				TypeLine:         candidate.details.TypeLine,
				ManaCost:         candidate.details.ManaCost,
				IsLegendary:      candidate.details.IsLegendary,
			})
		}

		generated, err := ts.themer.ThemeDeck(ctx, themeUniverse, artStyleBrief, descriptors)
		if err != nil {
			return err
		}

		// First occurrence wins; later duplicates from the model are ignored.
		outputByName := make(map[string]types.ThemedCardPayload, len(generated))
		for _, row := range generated {
			if _, exists := outputByName[row.OriginalCardName]; !exists {
				outputByName[row.OriginalCardName] = row
			}
		}

		for _, candidate := range candidates {
			payload, ok := outputByName[candidate.originalCardName]
			if !ok {
				if err := ts.markCardFailed(ctx, deckID, candidate.originalCardName, "Model output missing card."); err != nil {
					return err
				}
				continue
			}

			normalized := normalizeGeneratedCard(payload, candidate.details)
			if err := ts.themedRepo.UpdateByDeckAndName(ctx, nil, deckID, candidate.originalCardName, map[string]any{
				"status":              types.ThemedCardGenerated,
				"themed_name":         normalized.ThemedName,
				"themed_flavor_text":  normalized.ThemedFlavorText,
				"themed_concept":      normalized.ThemedConcept,
				"themed_image_prompt": normalized.ThemedImagePrompt,
				"constraints_applied": datatypes.JSONSlice[string](normalized.ConstraintsApplied),
				"error_message":       "",
			}); err != nil {
				return err
			}
		}
	}

	return ts.deckRepo.UpdateFields(ctx, nil, deckID, map[string]any{
		"theming_status":       types.DeckThemingCompleted,
		"theming_completed_at": time.Now(),
		"theming_error":        "",
	})
}

func (ts *themingService) markCardFailed(ctx context.Context, deckID uuid.UUID, originalCardName, errorMessage string) error {
	return ts.themedRepo.UpdateByDeckAndName(ctx, nil, deckID, originalCardName, map[string]any{
		"status":              types.ThemedCardFailed,
		"themed_name":         "",
		"themed_flavor_text":  "",
		"themed_concept":      "",
		"themed_image_prompt": "",
		"constraints_applied": datatypes.JSONSlice[string]{},
		"error_message":       errorMessage,
	})
}

// normalizeGeneratedCard trims the model's text fields, clamps the concept
// and image prompt to their word ceilings, and unions in the constraint
// tags derived from the source card.
func normalizeGeneratedCard(generated types.ThemedCardPayload, details *types.CardDetails) types.ThemedCardPayload {
	var constraints []string
	seen := map[string]bool{}
	addConstraint := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		constraints = append(constraints, tag)
	}

	for _, tag := range generated.ConstraintsApplied {
		addConstraint(tag)
	}
	if details.IsLegendary {
		addConstraint(constraintLegendarySource)
	}
	if typeTag := typeConstraintTag(details.TypeLine); typeTag != "" {
		addConstraint(typeTag)
	}

	return types.ThemedCardPayload{
		OriginalCardName:   strings.TrimSpace(generated.OriginalCardName),
		ThemedName:         strings.TrimSpace(generated.ThemedName),
		ThemedFlavorText:   strings.TrimSpace(generated.ThemedFlavorText),
		ThemedConcept:      limitWords(strings.TrimSpace(generated.ThemedConcept), themedConceptWordLimit),
		ThemedImagePrompt:  limitWords(strings.TrimSpace(generated.ThemedImagePrompt), themedImagePromptWordLimit),
		ConstraintsApplied: constraints,
	}
}

// typeConstraintTag picks one type tag by keyword priority against the
// lowercased type line.
func typeConstraintTag(typeLine string) string {
	normalized := strings.ToLower(typeLine)
	for _, keyword := range []string{"artifact", "enchantment", "creature", "planeswalker", "instant", "sorcery", "land"} {
		if strings.Contains(normalized, keyword) {
			return "type-" + keyword
		}
	}
	return ""
}

// limitWords truncates by whitespace-delimited word count, never by
// characters.
func limitWords(value string, maxWords int) string {
	words := strings.Fields(value)
	if len(words) <= maxWords {
		return value
	}
	return strings.Join(words[:maxWords], " ")
}
