package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/platform/apierr"
	"github.com/deckforge/deckforge-backend/internal/repos"
	"github.com/deckforge/deckforge-backend/internal/types"
)

type DeckCreateResult struct {
	DeckID              uuid.UUID `json:"deckId"`
	CardCount           int       `json:"cardCount"`
	UnresolvedCardNames []string  `json:"unresolvedCardNames"`
}

type DeckDetail struct {
	Deck        *types.Deck         `json:"deck"`
	Cards       []*types.DeckCard   `json:"cards"`
	ThemedCards []*types.ThemedCard `json:"themedCards"`
}

type DeckService interface {
	Create(ctx context.Context, tx *gorm.DB, title, decklistText string) (*DeckCreateResult, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Deck, error)
	Get(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (*DeckDetail, error)
	Delete(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error
}

type deckService struct {
	db            *gorm.DB
	log           *logger.Logger
	deckRepo      repos.DeckRepo
	cardRepo      repos.DeckCardRepo
	themedRepo    repos.ThemedCardRepo
	imageResolver CardImageResolver
}

func NewDeckService(db *gorm.DB, log *logger.Logger, deckRepo repos.DeckRepo, cardRepo repos.DeckCardRepo, themedRepo repos.ThemedCardRepo, imageResolver CardImageResolver) DeckService {
	return &deckService{
		db:            db,
		log:           log.With("service", "DeckService"),
		deckRepo:      deckRepo,
		cardRepo:      cardRepo,
		themedRepo:    themedRepo,
		imageResolver: imageResolver,
	}
}

func (ds *deckService) Create(ctx context.Context, tx *gorm.DB, title, decklistText string) (*DeckCreateResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apierr.Invalid("invalid-title", "Title is required.")
	}
	if strings.TrimSpace(decklistText) == "" {
		return nil, apierr.Invalid("invalid-decklist", "Deck list text is required.")
	}

	parsed := ParseDecklist(decklistText)
	if len(parsed.Cards) == 0 {
		return nil, apierr.Invalid("invalid-decklist", "No parseable cards found in deck list.")
	}

	now := time.Now()
	deck, err := ds.deckRepo.Create(ctx, tx, &types.Deck{
		Title:         strings.TrimSpace(title),
		ThemingStatus: types.DeckThemingIdle,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	var unresolved []string
	cardCount := 0
	deckCards := make([]*types.DeckCard, 0, len(parsed.Cards))
	for _, card := range parsed.Cards {
		cardCount += card.Quantity

		resolved, resolveErr := ds.imageResolver.ResolveCardImage(ctx, card.Name)
		if resolveErr != nil {
			ds.log.Warn("Card image resolution error", "card", card.Name, "error", resolveErr)
		}
		if resolved == nil {
			unresolved = append(unresolved, card.Name)
			resolved = &types.ResolvedCardImage{}
		}

		deckCards = append(deckCards, &types.DeckCard{
			DeckID:     deck.ID,
			Name:       card.Name,
			Quantity:   card.Quantity,
			ScryfallID: resolved.ScryfallID,
			ImageURL:   resolved.ImageURL,
			CreatedAt:  now,
		})
	}

	if _, err := ds.cardRepo.Create(ctx, tx, deckCards); err != nil {
		return nil, err
	}

	return &DeckCreateResult{
		DeckID:              deck.ID,
		CardCount:           cardCount,
		UnresolvedCardNames: unresolved,
	}, nil
}

func (ds *deckService) List(ctx context.Context, tx *gorm.DB) ([]*types.Deck, error) {
	return ds.deckRepo.List(ctx, tx)
}

func (ds *deckService) Get(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (*DeckDetail, error) {
	deck, err := ds.deckRepo.GetByID(ctx, tx, deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, apierr.NotFound("deck-not-found", "Deck not found.")
	}

	cards, err := ds.cardRepo.ListByDeck(ctx, tx, deckID)
	if err != nil {
		return nil, err
	}
	themed, err := ds.themedRepo.ListByDeck(ctx, tx, deckID)
	if err != nil {
		return nil, err
	}

	return &DeckDetail{Deck: deck, Cards: cards, ThemedCards: themed}, nil
}

func (ds *deckService) Delete(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error {
	deck, err := ds.deckRepo.GetByID(ctx, tx, deckID)
	if err != nil {
		return err
	}
	if deck == nil {
		return apierr.NotFound("deck-not-found", "Deck not found.")
	}

	transaction := tx
	if transaction == nil {
		transaction = ds.db
	}
	return transaction.Transaction(func(txn *gorm.DB) error {
		if err := ds.themedRepo.DeleteByDeck(ctx, txn, deckID); err != nil {
			return err
		}
		if err := ds.cardRepo.DeleteByDeck(ctx, txn, deckID); err != nil {
			return err
		}
		return ds.deckRepo.Delete(ctx, txn, deckID)
	})
}
