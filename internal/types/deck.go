package types

import (
	"time"

	"github.com/google/uuid"
)

type DeckThemingStatus string

const (
	DeckThemingIdle      DeckThemingStatus = "idle"
	DeckThemingRunning   DeckThemingStatus = "running"
	DeckThemingCompleted DeckThemingStatus = "completed"
	DeckThemingFailed    DeckThemingStatus = "failed"
)

type Deck struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Title              string            `gorm:"column:title;not null" json:"title"`
	ThemingStatus      DeckThemingStatus `gorm:"column:theming_status;not null;default:idle;index" json:"theming_status"`
	ThemeUniverse      string            `gorm:"column:theme_universe" json:"theme_universe"`
	ArtStyleBrief      string            `gorm:"column:art_style_brief" json:"art_style_brief"`
	ThemingStartedAt   *time.Time        `gorm:"column:theming_started_at" json:"theming_started_at,omitempty"`
	ThemingCompletedAt *time.Time        `gorm:"column:theming_completed_at" json:"theming_completed_at,omitempty"`
	ThemingError       string            `gorm:"column:theming_error" json:"theming_error"`
	CreatedAt          time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;index" json:"updated_at"`
}

func (Deck) TableName() string { return "deck" }
