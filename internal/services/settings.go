package services

import (
	"context"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/platform/apierr"
	"github.com/deckforge/deckforge-backend/internal/repos"
	"github.com/deckforge/deckforge-backend/internal/types"
)

// AppSettingsPublic is the masked view of stored settings; the raw key
// never leaves the server.
type AppSettingsPublic struct {
	HasOpenAIAPIKey    bool       `json:"hasOpenAIApiKey"`
	MaskedOpenAIAPIKey string     `json:"maskedOpenAIApiKey,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

type SettingsService interface {
	Get(ctx context.Context, tx *gorm.DB) (*AppSettingsPublic, error)
	SetOpenAIKey(ctx context.Context, tx *gorm.DB, key string) (*AppSettingsPublic, error)
	ClearOpenAIKey(ctx context.Context, tx *gorm.DB) (*AppSettingsPublic, error)

	// OpenAIAPIKey resolves the runtime key: the stored key wins, the
	// OPENAI_API_KEY environment variable is the fallback.
	OpenAIAPIKey(ctx context.Context) (string, error)
}

type settingsService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.AppSettingRepo
}

func NewSettingsService(db *gorm.DB, log *logger.Logger, repo repos.AppSettingRepo) SettingsService {
	return &settingsService{
		db:   db,
		log:  log.With("service", "SettingsService"),
		repo: repo,
	}
}

// MaskOpenAIAPIKey hides everything but the last four characters.
func MaskOpenAIAPIKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return ""
	}
	suffix := trimmed
	if len(trimmed) > 4 {
		suffix = trimmed[len(trimmed)-4:]
	}
	return "••••••••" + suffix
}

func toPublic(setting *types.AppSetting) *AppSettingsPublic {
	key := ""
	var updatedAt *time.Time
	if setting != nil {
		key = strings.TrimSpace(setting.OpenAIAPIKey)
		t := setting.UpdatedAt
		updatedAt = &t
	}
	public := &AppSettingsPublic{
		HasOpenAIAPIKey: key != "",
		UpdatedAt:       updatedAt,
	}
	if public.HasOpenAIAPIKey {
		public.MaskedOpenAIAPIKey = MaskOpenAIAPIKey(key)
	}
	return public
}

func (ss *settingsService) Get(ctx context.Context, tx *gorm.DB) (*AppSettingsPublic, error) {
	setting, err := ss.repo.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	return toPublic(setting), nil
}

func (ss *settingsService) SetOpenAIKey(ctx context.Context, tx *gorm.DB, key string) (*AppSettingsPublic, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return nil, apierr.Invalid("invalid-openai-api-key", "OpenAI API key is required.")
	}
	setting := &types.AppSetting{OpenAIAPIKey: trimmed}
	if err := ss.repo.Upsert(ctx, tx, setting); err != nil {
		return nil, err
	}
	return toPublic(setting), nil
}

func (ss *settingsService) ClearOpenAIKey(ctx context.Context, tx *gorm.DB) (*AppSettingsPublic, error) {
	setting := &types.AppSetting{OpenAIAPIKey: ""}
	if err := ss.repo.Upsert(ctx, tx, setting); err != nil {
		return nil, err
	}
	return toPublic(setting), nil
}

func (ss *settingsService) OpenAIAPIKey(ctx context.Context) (string, error) {
	setting, err := ss.repo.Get(ctx, nil)
	if err != nil {
		return "", err
	}
	if setting != nil {
		if stored := strings.TrimSpace(setting.OpenAIAPIKey); stored != "" {
			return stored, nil
		}
	}
	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY")), nil
}
