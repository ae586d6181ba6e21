package app

import (
	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/utils"
)

type Config struct {
	Port          string
	RedisAddr     string
	TitleFontPath string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:          utils.GetEnv("PORT", "8080", log),
		RedisAddr:     utils.GetEnv("REDIS_ADDR", "", log),
		TitleFontPath: utils.GetEnv("CARD_TITLE_FONT", "", log),
	}
}
