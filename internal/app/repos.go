package app

import (
	"gorm.io/gorm"

	"github.com/deckforge/deckforge-backend/internal/pkg/logger"
	"github.com/deckforge/deckforge-backend/internal/repos"
)

type Repos struct {
	Deck       repos.DeckRepo
	DeckCard   repos.DeckCardRepo
	ThemedCard repos.ThemedCardRepo
	AppSetting repos.AppSettingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Deck:       repos.NewDeckRepo(db, log),
		DeckCard:   repos.NewDeckCardRepo(db, log),
		ThemedCard: repos.NewThemedCardRepo(db, log),
		AppSetting: repos.NewAppSettingRepo(db, log),
	}
}
