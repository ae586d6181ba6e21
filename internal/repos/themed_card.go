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

type ThemedCardRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cards []*types.ThemedCard) ([]*types.ThemedCard, error)
	ListByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.ThemedCard, error)
	GetByDeckAndName(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, originalCardName string) (*types.ThemedCard, error)
	CountByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (int64, error)
	DeleteByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error
	UpdateByDeckAndName(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, originalCardName string, updates map[string]any) error

	// ClaimImageGenerating flips image_status to "generating" iff it is not
	// already "generating". The conditional write is the only deduplication
	// for art jobs; extraUpdates lets the single-card path persist edited
	// title/prompt in the same statement.
	ClaimImageGenerating(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, originalCardName string, extraUpdates map[string]any) (bool, error)

	// ClaimCompositeGenerating is the same protocol for the composite stage.
	ClaimCompositeGenerating(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, originalCardName string) (bool, error)
}

type themedCardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThemedCardRepo(db *gorm.DB, baseLog *logger.Logger) ThemedCardRepo {
	return &themedCardRepo{db: db, log: baseLog.With("repo", "ThemedCardRepo")}
}

func (tcr *themedCardRepo) Create(ctx context.Context, tx *gorm.DB, cards []*types.ThemedCard) ([]*types.ThemedCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}
	if len(cards) == 0 {
		return []*types.ThemedCard{}, nil
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

func (tcr *themedCardRepo) ListByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.ThemedCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}
	var results []*types.ThemedCard
	if err := transaction.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("original_card_name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tcr *themedCardRepo) GetByDeckAndName(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, originalCardName string) (*types.ThemedCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}
	var card types.ThemedCard
	err := transaction.WithContext(ctx).
		Where("deck_id = ? AND original_card_name = ?", deckID, originalCardName).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (tcr *themedCardRepo) CountByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ThemedCard{}).
		Where("deck_id = ?", deckID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (tcr *themedCardRepo) DeleteByDeck(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}
	return transaction.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Delete(&types.ThemedCard{}).Error
}

func (tcr *themedCardRepo) UpdateByDeckAndName(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, originalCardName string, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.ThemedCard{}).
		Where("deck_id = ? AND original_card_name = ?", deckID, originalCardName).
		Updates(updates).Error
}

func (tcr *themedCardRepo) ClaimImageGenerating(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, originalCardName string, extraUpdates map[string]any) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}
	now := time.Now()
	updates := map[string]any{
		"image_status":     types.AssetGenerating,
		"image_error":      "",
		"image_updated_at": now,
		"updated_at":       now,
	}
	for k, v := range extraUpdates {
		updates[k] = v
	}
	res := transaction.WithContext(ctx).
		Model(&types.ThemedCard{}).
		Where("deck_id = ? AND original_card_name = ? AND image_status <> ?", deckID, originalCardName, types.AssetGenerating).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (tcr *themedCardRepo) ClaimCompositeGenerating(ctx context.Context, tx *gorm.DB, deckID uuid.UUID, originalCardName string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.ThemedCard{}).
		Where("deck_id = ? AND original_card_name = ? AND composite_status <> ?", deckID, originalCardName, types.AssetGenerating).
		Updates(map[string]any{
			"composite_status":     types.AssetGenerating,
			"composite_error":      "",
			"composite_updated_at": now,
			"updated_at":           now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
