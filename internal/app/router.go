package app

import (
	"github.com/gin-gonic/gin"

	httpserver "github.com/deckforge/deckforge-backend/internal/http"
	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, handlerset Handlers) *gin.Engine {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:             log,
		DeckHandler:     handlerset.Deck,
		ThemingHandler:  handlerset.Theming,
		SettingsHandler: handlerset.Settings,
		HealthHandler:   handlerset.Health,
	})
}
