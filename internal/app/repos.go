package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
	"github.com/yungbote/levelsnap-backend/internal/store"
)

type Repos struct {
	// Runs is nil when the store is disabled.
	Runs store.RunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	if db == nil {
		return Repos{}
	}
	return Repos{
		Runs: store.NewRunRepo(db, log),
	}
}
