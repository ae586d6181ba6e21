package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ThemedCardStatus string

const (
	ThemedCardPending   ThemedCardStatus = "pending"
	ThemedCardGenerated ThemedCardStatus = "generated"
	ThemedCardFailed    ThemedCardStatus = "failed"
	ThemedCardSkipped   ThemedCardStatus = "skipped"
)

// ThemedCardAssetStatus tracks one background stage (art generation or
// compositing) of a themed card. "generating" doubles as the claim marker:
// at most one job may hold it per (deck, card, stage).
type ThemedCardAssetStatus string

const (
	AssetIdle       ThemedCardAssetStatus = "idle"
	AssetGenerating ThemedCardAssetStatus = "generating"
	AssetGenerated  ThemedCardAssetStatus = "generated"
	AssetFailed     ThemedCardAssetStatus = "failed"
)

type ThemedCard struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	DeckID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_themed_card_name,unique" json:"deck_id"`
	OriginalCardName string           `gorm:"column:original_card_name;not null;index:idx_themed_card_name,unique" json:"original_card_name"`
	Quantity         int              `gorm:"column:quantity;not null" json:"quantity"`
	IsBasicLand      bool             `gorm:"column:is_basic_land;not null;default:false" json:"is_basic_land"`
	Status           ThemedCardStatus `gorm:"column:status;not null;index" json:"status"`

	ThemedName        string                      `gorm:"column:themed_name" json:"themed_name"`
	ThemedFlavorText  string                      `gorm:"column:themed_flavor_text" json:"themed_flavor_text"`
	ThemedConcept     string                      `gorm:"column:themed_concept" json:"themed_concept"`
	ThemedImagePrompt string                      `gorm:"column:themed_image_prompt" json:"themed_image_prompt"`
	ConstraintsApplied datatypes.JSONSlice[string] `gorm:"column:constraints_applied" json:"constraints_applied"`
	ErrorMessage      string                      `gorm:"column:error_message" json:"error_message"`

	ImageStatus    ThemedCardAssetStatus `gorm:"column:image_status;not null;default:idle" json:"image_status"`
	ImageURL       string                `gorm:"column:image_url" json:"image_url"`
	ImageError     string                `gorm:"column:image_error" json:"image_error"`
	ImageUpdatedAt *time.Time            `gorm:"column:image_updated_at" json:"image_updated_at,omitempty"`

	CompositeStatus    ThemedCardAssetStatus `gorm:"column:composite_status;not null;default:idle" json:"composite_status"`
	CompositeURL       string                `gorm:"column:composite_url" json:"composite_url"`
	CompositeError     string                `gorm:"column:composite_error" json:"composite_error"`
	CompositeUpdatedAt *time.Time            `gorm:"column:composite_updated_at" json:"composite_updated_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ThemedCard) TableName() string { return "themed_card" }
