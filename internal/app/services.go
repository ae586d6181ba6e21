package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/clients/imagefetch"
	"github.com/deckforge/deckforge-backend/internal/clients/openai"
	"github.com/deckforge/deckforge-backend/internal/clients/scryfall"
	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/services"
)

type Services struct {
	Settings    services.SettingsService
	Deck        services.DeckService
	Theming     services.ThemingService
	ThemedImage services.ThemedImageService
	Composite   services.CompositeService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	settings := services.NewSettingsService(db, log, reposet.AppSetting)

	scry := scryfall.NewClient(log)
	var detailsResolver services.CardDetailsResolver = scry
	var imageResolver services.CardImageResolver = scry
	if cfg.RedisAddr != "" {
		cached, err := scryfall.NewCachedClient(log, scry)
		if err != nil {
			log.Warn("Scryfall cache unavailable, using direct lookups", "error", err)
		} else {
			detailsResolver = cached
			imageResolver = cached
		}
	}

	oa := openai.NewClient(log, settings)
	fetcher := imagefetch.NewFetcher(log)

	var fontTTF []byte
	if cfg.TitleFontPath != "" {
		data, err := os.ReadFile(cfg.TitleFontPath)
		if err != nil {
			return Services{}, fmt.Errorf("read title font %q: %w", cfg.TitleFontPath, err)
		}
		fontTTF = data
	}
	composer, err := services.NewStandardCardComposer(fontTTF)
	if err != nil {
		return Services{}, err
	}

	return Services{
		Settings:    settings,
		Deck:        services.NewDeckService(db, log, reposet.Deck, reposet.DeckCard, reposet.ThemedCard, imageResolver),
		Theming:     services.NewThemingService(db, log, reposet.Deck, reposet.DeckCard, reposet.ThemedCard, detailsResolver, oa),
		ThemedImage: services.NewThemedImageService(db, log, reposet.Deck, reposet.ThemedCard, oa),
		Composite:   services.NewCompositeService(db, log, reposet.Deck, reposet.DeckCard, reposet.ThemedCard, fetcher, composer),
	}, nil
}
