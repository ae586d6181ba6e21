package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/platform/apierr"
	"github.com/deckforge/deckforge-backend/internal/repos"
	"github.com/deckforge/deckforge-backend/internal/types"
)

func newCompositeService(t *testing.T, db *gorm.DB, fetcher ImageFetcher, composer CardComposer) CompositeService {
	t.Helper()
	log := logger.NewNop()
	return NewCompositeService(
		db, log,
		repos.NewDeckRepo(db, log),
		repos.NewDeckCardRepo(db, log),
		repos.NewThemedCardRepo(db, log),
		fetcher, composer,
	)
}

func waitForCompositeJobs(t *testing.T, svc CompositeService) {
	t.Helper()
	impl, ok := svc.(*compositeService)
	if !ok {
		t.Fatalf("unexpected service type %T", svc)
	}
	done := make(chan struct{})
	go func() {
		impl.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for background composite jobs")
	}
}

func seedCompositeFixtures(t *testing.T, db *gorm.DB) (*types.Deck, *types.ThemedCard) {
	t.Helper()
	deck := seedDeck(t, db, types.DeckThemingCompleted)
	seedDeckCard(t, db, deck.ID, "Shivan Dragon", 2, "frame-ref")
	card := seedThemedCard(t, db, &types.ThemedCard{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		Quantity:         2,
		Status:           types.ThemedCardGenerated,
		ThemedName:       "TIE Interceptor",
		ImageStatus:      types.AssetGenerated,
		ImageURL:         "art-ref",
	})
	return deck, card
}

func passthroughComposer() *fakeComposer {
	return &fakeComposer{fn: func(_, _ []byte, title string) (string, error) {
		return "data:image/png;base64,COMPOSITE-" + title, nil
	}}
}

func compositeImages() *fakeImageFetcher {
	return &fakeImageFetcher{images: map[string][]byte{
		"frame-ref": []byte("frame-bytes"),
		"art-ref":   []byte("art-bytes"),
	}}
}

func TestGenerateCompositeHappyPath(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, _ := seedCompositeFixtures(t, db)
	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
	})
	if err != nil {
		t.Fatalf("GenerateForCard failed: %v", err)
	}
	if !result.Started {
		t.Fatal("expected composite job to start")
	}

	waitForCompositeJobs(t, svc)

	card := loadThemedCard(t, db, deck.ID, "Shivan Dragon")
	if card.CompositeStatus != types.AssetGenerated {
		t.Fatalf("unexpected status: got=%q (error=%q)", card.CompositeStatus, card.CompositeError)
	}
	if card.CompositeURL != "data:image/png;base64,COMPOSITE-TIE Interceptor" {
		t.Fatalf("unexpected composite url: got=%q", card.CompositeURL)
	}
}

func TestGenerateCompositePreconditions(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, _ := seedCompositeFixtures(t, db)
	idleDeck := seedDeck(t, db, types.DeckThemingIdle)
	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	// A not-ready row on the completed deck.
	seedThemedCard(t, db, &types.ThemedCard{
		DeckID:           deck.ID,
		OriginalCardName: "Failed Card",
		Quantity:         1,
		Status:           types.ThemedCardFailed,
	})

	tests := []struct {
		name     string
		input    CompositeInput
		wantCode string
	}{
		{
			name:     "missing card name",
			input:    CompositeInput{DeckID: deck.ID, ThemedName: "T"},
			wantCode: "invalid-card-name",
		},
		{
			name:     "missing themed name",
			input:    CompositeInput{DeckID: deck.ID, OriginalCardName: "Shivan Dragon"},
			wantCode: "invalid-themed-name",
		},
		{
			name:     "theming not complete",
			input:    CompositeInput{DeckID: idleDeck.ID, OriginalCardName: "Shivan Dragon", ThemedName: "T"},
			wantCode: "theming-not-complete",
		},
		{
			name:     "unknown themed card",
			input:    CompositeInput{DeckID: deck.ID, OriginalCardName: "Missing", ThemedName: "T"},
			wantCode: "themed-card-not-found",
		},
		{
			name:     "card text not ready",
			input:    CompositeInput{DeckID: deck.ID, OriginalCardName: "Failed Card", ThemedName: "T"},
			wantCode: "themed-card-not-ready",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GenerateForCard(context.Background(), tc.input)
			apiErr, ok := apierr.From(err)
			if !ok {
				t.Fatalf("expected apierr, got %v", err)
			}
			if apiErr.Code != tc.wantCode {
				t.Fatalf("unexpected code: got=%q want=%q", apiErr.Code, tc.wantCode)
			}
		})
	}
}

func TestGenerateCompositeSkipsWhenCurrent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, card := seedCompositeFixtures(t, db)
	card.CompositeStatus = types.AssetGenerated
	card.CompositeURL = "data:image/png;base64,EXISTING"
	if err := db.Save(card).Error; err != nil {
		t.Fatalf("update seed: %v", err)
	}

	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
	})
	if err != nil {
		t.Fatalf("GenerateForCard failed: %v", err)
	}
	if result.Started {
		t.Fatal("unchanged title with existing composite should skip")
	}
	if result.CompositeURL != "data:image/png;base64,EXISTING" {
		t.Fatalf("unexpected composite url: got=%q", result.CompositeURL)
	}
}

func TestGenerateCompositeRebuildsOnTitleChange(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, card := seedCompositeFixtures(t, db)
	card.CompositeStatus = types.AssetGenerated
	card.CompositeURL = "data:image/png;base64,EXISTING"
	if err := db.Save(card).Error; err != nil {
		t.Fatalf("update seed: %v", err)
	}

	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "X-Wing Ace",
	})
	if err != nil {
		t.Fatalf("GenerateForCard failed: %v", err)
	}
	if !result.Started {
		t.Fatal("title change should rebuild the composite")
	}

	waitForCompositeJobs(t, svc)

	reloaded := loadThemedCard(t, db, deck.ID, "Shivan Dragon")
	if reloaded.ThemedName != "X-Wing Ace" {
		t.Fatalf("title not persisted: got=%q", reloaded.ThemedName)
	}
	if reloaded.CompositeURL != "data:image/png;base64,COMPOSITE-X-Wing Ace" {
		t.Fatalf("composite not rebuilt: got=%q", reloaded.CompositeURL)
	}
}

func TestGenerateCompositeForceRebuilds(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, card := seedCompositeFixtures(t, db)
	card.CompositeStatus = types.AssetGenerated
	card.CompositeURL = "data:image/png;base64,EXISTING"
	if err := db.Save(card).Error; err != nil {
		t.Fatalf("update seed: %v", err)
	}

	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
		ForceRegenerate:  true,
	})
	if err != nil {
		t.Fatalf("GenerateForCard failed: %v", err)
	}
	if !result.Started {
		t.Fatal("force should rebuild the composite")
	}
	waitForCompositeJobs(t, svc)
}

func TestGenerateCompositeMissingBaseImage(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck := seedDeck(t, db, types.DeckThemingCompleted)
	seedDeckCard(t, db, deck.ID, "Shivan Dragon", 2, "")
	seedThemedCard(t, db, &types.ThemedCard{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		Quantity:         2,
		Status:           types.ThemedCardGenerated,
		ThemedName:       "TIE Interceptor",
		ImageStatus:      types.AssetGenerated,
		ImageURL:         "art-ref",
	})

	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	_, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
	})
	apiErr, ok := apierr.From(err)
	if !ok || apiErr.Code != "base-image-missing" {
		t.Fatalf("expected base-image-missing, got %v", err)
	}

	card := loadThemedCard(t, db, deck.ID, "Shivan Dragon")
	if card.CompositeStatus != types.AssetFailed {
		t.Fatalf("failure not recorded: got=%q", card.CompositeStatus)
	}
	if card.CompositeError != "Missing base Scryfall card image." {
		t.Fatalf("unexpected error: got=%q", card.CompositeError)
	}
}

func TestGenerateCompositeMissingThemedArt(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck := seedDeck(t, db, types.DeckThemingCompleted)
	seedDeckCard(t, db, deck.ID, "Shivan Dragon", 2, "frame-ref")
	seedThemedCard(t, db, &types.ThemedCard{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		Quantity:         2,
		Status:           types.ThemedCardGenerated,
		ThemedName:       "TIE Interceptor",
	})

	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	_, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
	})
	apiErr, ok := apierr.From(err)
	if !ok || apiErr.Code != "themed-art-missing" {
		t.Fatalf("expected themed-art-missing, got %v", err)
	}

	card := loadThemedCard(t, db, deck.ID, "Shivan Dragon")
	if card.CompositeError != "Generate themed art before creating a themed card image." {
		t.Fatalf("unexpected error: got=%q", card.CompositeError)
	}
}

func TestGenerateCompositeStaleArtAfterFailedRegeneration(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck := seedDeck(t, db, types.DeckThemingCompleted)
	seedDeckCard(t, db, deck.ID, "Shivan Dragon", 2, "frame-ref")
	// The last art run failed but the URL from an earlier success is
	// still on the row. Compositing must not pick up the stale art.
	seedThemedCard(t, db, &types.ThemedCard{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		Quantity:         2,
		Status:           types.ThemedCardGenerated,
		ThemedName:       "TIE Interceptor",
		ImageStatus:      types.AssetFailed,
		ImageURL:         "art-ref",
	})

	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
	})
	apiErr, ok := apierr.From(err)
	if !ok || apiErr.Code != "themed-art-missing" {
		t.Fatalf("expected themed-art-missing, got result=%+v err=%v", result, err)
	}

	card := loadThemedCard(t, db, deck.ID, "Shivan Dragon")
	if card.CompositeStatus != types.AssetFailed {
		t.Fatalf("failure not recorded: got=%q", card.CompositeStatus)
	}
	if card.CompositeError != "Generate themed art before creating a themed card image." {
		t.Fatalf("unexpected error: got=%q", card.CompositeError)
	}
}

func TestGenerateCompositeInFlightClaimSurvivesFailedArt(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, card := seedCompositeFixtures(t, db)
	card.CompositeStatus = types.AssetGenerating
	card.ImageStatus = types.AssetFailed
	if err := db.Save(card).Error; err != nil {
		t.Fatalf("update seed: %v", err)
	}

	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	// Art regeneration failed while a composite job holds the claim. The
	// call must step aside before the art check, keeping the title edit
	// and leaving the claim untouched.
	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "X-Wing Ace",
	})
	if err != nil {
		t.Fatalf("GenerateForCard failed: %v", err)
	}
	if result.Started {
		t.Fatal("no new job may start while a composite job is in flight")
	}

	reloaded := loadThemedCard(t, db, deck.ID, "Shivan Dragon")
	if reloaded.CompositeStatus != types.AssetGenerating {
		t.Fatalf("in-flight claim overwritten: got=%q", reloaded.CompositeStatus)
	}
	if reloaded.ThemedName != "X-Wing Ace" {
		t.Fatalf("title not persisted: got=%q", reloaded.ThemedName)
	}
}

func TestGenerateCompositeAlreadyGenerating(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, card := seedCompositeFixtures(t, db)
	card.CompositeStatus = types.AssetGenerating
	if err := db.Save(card).Error; err != nil {
		t.Fatalf("update seed: %v", err)
	}

	svc := newCompositeService(t, db, compositeImages(), passthroughComposer())

	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
		ForceRegenerate:  true,
	})
	if err != nil {
		t.Fatalf("GenerateForCard failed: %v", err)
	}
	if result.Started {
		t.Fatal("claim should fail while a composite job is in flight")
	}
}

func TestGenerateCompositeUnsupportedLayoutRecorded(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, _ := seedCompositeFixtures(t, db)

	composer := &fakeComposer{fn: func(_, _ []byte, _ string) (string, error) {
		return "", unsupportedLayout("card image is not a standard single-face frame ratio.")
	}}
	svc := newCompositeService(t, db, compositeImages(), composer)

	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
	})
	if err != nil {
		t.Fatalf("GenerateForCard failed: %v", err)
	}
	if !result.Started {
		t.Fatal("expected composite job to start")
	}

	waitForCompositeJobs(t, svc)

	card := loadThemedCard(t, db, deck.ID, "Shivan Dragon")
	if card.CompositeStatus != types.AssetFailed {
		t.Fatalf("unexpected status: got=%q", card.CompositeStatus)
	}
	if card.CompositeError == "" {
		t.Fatal("expected layout error recorded on row")
	}
}

func TestGenerateCompositeFetchFailureRecorded(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	deck, _ := seedCompositeFixtures(t, db)

	fetcher := &fakeImageFetcher{
		images: map[string][]byte{"frame-ref": []byte("frame-bytes")},
	}
	svc := newCompositeService(t, db, fetcher, passthroughComposer())

	result, err := svc.GenerateForCard(context.Background(), CompositeInput{
		DeckID:           deck.ID,
		OriginalCardName: "Shivan Dragon",
		ThemedName:       "TIE Interceptor",
	})
	if err != nil {
		t.Fatalf("GenerateForCard failed: %v", err)
	}
	if !result.Started {
		t.Fatal("expected composite job to start")
	}

	waitForCompositeJobs(t, svc)

	card := loadThemedCard(t, db, deck.ID, "Shivan Dragon")
	if card.CompositeStatus != types.AssetFailed {
		t.Fatalf("unexpected status: got=%q", card.CompositeStatus)
	}
}
