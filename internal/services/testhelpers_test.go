package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/deckforge/deckforge-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	// A single connection keeps every session on the same in-memory
	// database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&types.Deck{}, &types.DeckCard{}, &types.ThemedCard{}, &types.AppSetting{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedDeck(t *testing.T, db *gorm.DB, status types.DeckThemingStatus) *types.Deck {
	t.Helper()
	now := time.Now()
	deck := &types.Deck{
		ID:            uuid.New(),
		Title:         "Test Deck",
		ThemingStatus: status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(deck).Error; err != nil {
		t.Fatalf("seed deck: %v", err)
	}
	return deck
}

func seedDeckCard(t *testing.T, db *gorm.DB, deckID uuid.UUID, name string, quantity int, imageURL string) *types.DeckCard {
	t.Helper()
	card := &types.DeckCard{
		ID:        uuid.New(),
		DeckID:    deckID,
		Name:      name,
		Quantity:  quantity,
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("seed deck card: %v", err)
	}
	return card
}

func seedThemedCard(t *testing.T, db *gorm.DB, card *types.ThemedCard) *types.ThemedCard {
	t.Helper()
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = now
	}
	if card.Status == "" {
		card.Status = types.ThemedCardGenerated
	}
	if card.ImageStatus == "" {
		card.ImageStatus = types.AssetIdle
	}
	if card.CompositeStatus == "" {
		card.CompositeStatus = types.AssetIdle
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("seed themed card: %v", err)
	}
	return card
}

func loadThemedCard(t *testing.T, db *gorm.DB, deckID uuid.UUID, name string) *types.ThemedCard {
	t.Helper()
	var card types.ThemedCard
	if err := db.Where("deck_id = ? AND original_card_name = ?", deckID, name).First(&card).Error; err != nil {
		t.Fatalf("load themed card %q: %v", name, err)
	}
	return &card
}

func loadDeck(t *testing.T, db *gorm.DB, deckID uuid.UUID) *types.Deck {
	t.Helper()
	var deck types.Deck
	if err := db.First(&deck, "id = ?", deckID).Error; err != nil {
		t.Fatalf("load deck: %v", err)
	}
	return &deck
}

type fakeDetailsResolver struct {
	details map[string]*types.CardDetails
	errs    map[string]error
}

func (f *fakeDetailsResolver) ResolveCardDetails(_ context.Context, cardName string) (*types.CardDetails, error) {
	if err, ok := f.errs[cardName]; ok {
		return nil, err
	}
	return f.details[cardName], nil
}

type fakeImageResolver struct {
	images map[string]*types.ResolvedCardImage
}

func (f *fakeImageResolver) ResolveCardImage(_ context.Context, cardName string) (*types.ResolvedCardImage, error) {
	return f.images[cardName], nil
}

type fakeThemer struct {
	fn    func(ctx context.Context, themeUniverse, artStyleBrief string, cards []types.ThemeCandidate) ([]types.ThemedCardPayload, error)
	calls int
	got   []types.ThemeCandidate
}

func (f *fakeThemer) ThemeDeck(ctx context.Context, themeUniverse, artStyleBrief string, cards []types.ThemeCandidate) ([]types.ThemedCardPayload, error) {
	f.calls++
	f.got = cards
	return f.fn(ctx, themeUniverse, artStyleBrief, cards)
}

type fakeArtGenerator struct {
	fn func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeArtGenerator) GenerateArt(ctx context.Context, prompt string) (string, error) {
	return f.fn(ctx, prompt)
}

type fakeImageFetcher struct {
	images map[string][]byte
	errs   map[string]error
}

func (f *fakeImageFetcher) FetchImageBytes(_ context.Context, ref string) ([]byte, error) {
	if err, ok := f.errs[ref]; ok {
		return nil, err
	}
	data, ok := f.images[ref]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return data, nil
}

type fakeComposer struct {
	fn func(frame, art []byte, title string) (string, error)
}

func (f *fakeComposer) Compose(frame, art []byte, title string) (string, error) {
	return f.fn(frame, art, title)
}
