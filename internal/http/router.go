package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/deckforge/deckforge-backend/internal/http/handlers"
	httpMW "github.com/deckforge/deckforge-backend/internal/http/middleware"
	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	DeckHandler     *httpH.DeckHandler
	ThemingHandler  *httpH.ThemingHandler
	SettingsHandler *httpH.SettingsHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Decks
		if cfg.DeckHandler != nil {
			api.POST("/decks", cfg.DeckHandler.CreateDeck)
			api.GET("/decks", cfg.DeckHandler.ListDecks)
			api.GET("/decks/:id", cfg.DeckHandler.GetDeck)
			api.DELETE("/decks/:id", cfg.DeckHandler.DeleteDeck)
		}

		// Theming pipeline
		if cfg.ThemingHandler != nil {
			api.POST("/decks/:id/theme", cfg.ThemingHandler.StartTheming)
			api.POST("/decks/:id/theme/images", cfg.ThemingHandler.GenerateImages)
			api.POST("/decks/:id/theme/images/card", cfg.ThemingHandler.GenerateCardImage)
			api.POST("/decks/:id/theme/composites/card", cfg.ThemingHandler.GenerateCardComposite)
		}

		// Settings
		if cfg.SettingsHandler != nil {
			api.GET("/settings", cfg.SettingsHandler.GetSettings)
			api.PUT("/settings/openai-key", cfg.SettingsHandler.SetOpenAIKey)
			api.DELETE("/settings/openai-key", cfg.SettingsHandler.ClearOpenAIKey)
		}
	}

	return r
}
