package models

import (
	"gorm.io/gorm"
)

// Database migration function
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Trip{},
		&Participation{},
		&JoinRequest{},
		&Message{},
	)
}

func CreateIndexes(db *gorm.DB) error {
	// At most one PENDING request per (trip, sender); resolved rows are history
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_join_requests_pending ON join_requests(trip_id, sender_id) WHERE status = 'PENDING'").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_pair_created ON messages(sender_id, receiver_id, created_at)").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id, is_read)").Error; err != nil {
		return err
	}

	return nil
}
