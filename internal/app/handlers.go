package app

import (
	httpH "github.com/deckforge/deckforge-backend/internal/http/handlers"
	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
)

type Handlers struct {
	Deck     *httpH.DeckHandler
	Theming  *httpH.ThemingHandler
	Settings *httpH.SettingsHandler
	Health   *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Deck:     httpH.NewDeckHandler(serviceset.Deck),
		Theming:  httpH.NewThemingHandler(serviceset.Theming, serviceset.ThemedImage, serviceset.Composite),
		Settings: httpH.NewSettingsHandler(serviceset.Settings),
		Health:   httpH.NewHealthHandler(),
	}
}
