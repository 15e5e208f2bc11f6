package models

import (
	"log"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	return db.AutoMigrate(
		&Group{},
		&Student{},
		&Parent{},
		&LessonReport{},
		&SupportSession{},
		&TelegramDelivery{},
		&TelegramUpdate{},
		&TelegramPendingLink{},
		&ParentInvite{},
		&AnalyticsEvent{},
	)
}
