package types

import (
	"time"

	"github.com/google/uuid"
)

// DeckCard is one named entry of the original decklist. Rows are immutable
// after deck creation; theming never touches them.
type DeckCard struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeckID     uuid.UUID `gorm:"type:uuid;not null;index:idx_deck_card_name,unique" json:"deck_id"`
	Name       string    `gorm:"column:name;not null;index:idx_deck_card_name,unique" json:"name"`
	Quantity   int       `gorm:"column:quantity;not null" json:"quantity"`
	ScryfallID string    `gorm:"column:scryfall_id" json:"scryfall_id"`
	ImageURL   string    `gorm:"column:image_url" json:"image_url"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (DeckCard) TableName() string { return "deck_card" }
