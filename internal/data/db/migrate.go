package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/fieldlog-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Job{},
		&domain.Summary{},
		&domain.AudioLog{},
		&domain.Prompt{},
	)
}

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
