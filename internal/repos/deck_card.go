package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/types"
)

type DeckCardRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cards []*types.DeckCard) ([]*types.DeckCard, error)
	ListByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.DeckCard, error)
	GetByDeckAndName(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, name string) (*types.DeckCard, error)
	DeleteByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error
}

type deckCardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeckCardRepo(db *gorm.DB, baseLog *logger.Logger) DeckCardRepo {
	return &deckCardRepo{db: db, log: baseLog.With("repo", "DeckCardRepo")}
}

func (dcr *deckCardRepo) Create(ctx context.Context, tx *gorm.DB, cards []*types.DeckCard) ([]*types.DeckCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = dcr.db
	}
	if len(cards) == 0 {
		return []*types.DeckCard{}, nil
	}
	for _, card := range cards {
		if card.ID == uuid.Nil {
			card.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Create(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (dcr *deckCardRepo) ListByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.DeckCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = dcr.db
	}
	var results []*types.DeckCard
	if err := transaction.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dcr *deckCardRepo) GetByDeckAndName(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, name string) (*types.DeckCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = dcr.db
	}
	var card types.DeckCard
	err := transaction.WithContext(ctx).
		Where("deck_id = ? AND name = ?", deckID, name).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (dcr *deckCardRepo) DeleteByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = dcr.db
	}
	return transaction.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Delete(&types.DeckCard{}).Error
}
