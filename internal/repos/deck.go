package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/types"
)

type DeckRepo interface {
	Create(ctx context.Context, tx *gorm.DB, deck *types.Deck) (*types.Deck, error)
	GetByID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (*types.Deck, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Deck, error)
	Delete(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error
	UpdateFields(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, updates map[string]any) error
	TouchUpdatedAt(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error
}

type deckRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeckRepo(db *gorm.DB, baseLog *logger.Logger) DeckRepo {
	return &deckRepo{db: db, log: baseLog.With("repo", "DeckRepo")}
}

func (dr *deckRepo) Create(ctx context.Context, tx *gorm.DB, deck *types.Deck) (*types.Deck, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	if deck.ID == uuid.Nil {
		deck.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(deck).Error; err != nil {
		return nil, err
	}
	return deck, nil
}

func (dr *deckRepo) GetByID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (*types.Deck, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	var deck types.Deck
	err := transaction.WithContext(ctx).Where("id = ?", deckID).First(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &deck, nil
}

func (dr *deckRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Deck, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	var results []*types.Deck
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *deckRepo) Delete(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", deckID).
		Delete(&types.Deck{}).Error
}

func (dr *deckRepo) UpdateFields(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.Deck{}).
		Where("id = ?", deckID).
		Updates(updates).Error
}

func (dr *deckRepo) TouchUpdatedAt(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error {
	return dr.UpdateFields(ctx, tx, deckID, map[string]any{"updated_at": time.Now()})
}
