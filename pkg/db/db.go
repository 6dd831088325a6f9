package db

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/1mt4y/travelbuddy/pkg/config"
	"github.com/1mt4y/travelbuddy/pkg/models"
)

// DB wraps the gorm.DB instance with additional functionality
type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

// New creates a new database connection. Query logs go to w; a nil writer
// falls back to stderr.
func New(cfg *config.DatabaseConfig, w logger.Writer) (*DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	if w == nil {
		w = stdlog.New(os.Stderr, "\r\n", stdlog.LstdFlags)
	}

	// Configure GORM
	gormConfig := &gorm.Config{
		Logger: logger.New(w, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  parseLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	}

	// Open database connection
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

// FromGorm wraps an already opened gorm connection.
func FromGorm(gdb *gorm.DB) *DB {
	return &DB{DB: gdb}
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	if err := models.AutoMigrate(db.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := models.CreateIndexes(db.DB); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// SeedDemoData inserts two demo travellers and an open trip when the users
// table is empty. passwordHash is shared by both accounts.
func (db *DB) SeedDemoData(passwordHash string) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	alice := models.User{
		Email:        "alice@travelbuddy.dev",
		PasswordHash: passwordHash,
		Name:         "Alice",
		Nationality:  "Portuguese",
		Bio:          "Slow travel, long walks, cheap trains.",
		Languages:    models.NewStringList([]string{"Portuguese", "English"}),
	}
	bob := models.User{
		Email:        "bob@travelbuddy.dev",
		PasswordHash: passwordHash,
		Name:         "Bob",
		Nationality:  "Canadian",
		Languages:    models.NewStringList([]string{"English", "French"}),
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, u := range []*models.User{&alice, &bob} {
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
			}
		}

		trip := models.Trip{
			Title:           "Hiking the Rota Vicentina",
			Destination:     "Alentejo, Portugal",
			StartDate:       now.AddDate(0, 1, 0).Truncate(24 * time.Hour),
			EndDate:         now.AddDate(0, 1, 7).Truncate(24 * time.Hour),
			Description:     "A week on the Fishermen's Trail, staying in guesthouses.",
			Activities:      models.NewStringList([]string{"hiking", "surfing", "seafood"}),
			MaxParticipants: 4,
			CreatorID:       alice.ID,
		}
		if err := tx.Omit("Creator", "Participants", "JoinRequests").Create(&trip).Error; err != nil {
			return fmt.Errorf("failed to seed trip: %w", err)
		}

		return tx.Create(&models.Participation{UserID: alice.ID, TripID: trip.ID, JoinedAt: now}).Error
	})
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// Transaction executes a function within a database transaction
func (db *DB) Transaction(fn func(*gorm.DB) error) error {
	return db.DB.Transaction(fn)
}
