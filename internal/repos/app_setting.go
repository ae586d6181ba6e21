package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/types"
)

type AppSettingRepo interface {
	Get(ctx context.Context, tx *gorm.DB) (*types.AppSetting, error)
	Upsert(ctx context.Context, tx *gorm.DB, setting *types.AppSetting) error
}

type appSettingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppSettingRepo(db *gorm.DB, baseLog *logger.Logger) AppSettingRepo {
	return &appSettingRepo{db: db, log: baseLog.With("repo", "AppSettingRepo")}
}

func (asr *appSettingRepo) Get(ctx context.Context, tx *gorm.DB) (*types.AppSetting, error) {
	transaction := tx
	if transaction == nil {
		transaction = asr.db
	}
	var setting types.AppSetting
	err := transaction.WithContext(ctx).
		Where("id = ?", types.GlobalAppSettingID).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (asr *appSettingRepo) Upsert(ctx context.Context, tx *gorm.DB, setting *types.AppSetting) error {
	transaction := tx
	if transaction == nil {
		transaction = asr.db
	}
	setting.ID = types.GlobalAppSettingID
	setting.UpdatedAt = time.Now()
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"openai_api_key", "updated_at"}),
		}).
		Create(setting).Error
}
