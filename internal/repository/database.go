package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/logging"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// InitDB opens the database for dsn, sizes the pool and migrates the schema.
func InitDB(dsn string, maxOpenConns int) (*gorm.DB, error) {
	db, err := Open(dsn, maxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Open(dsn string, maxOpenConns int) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	var dialector gorm.Dialector
	switch DetectDialect(trimmed) {
	case DialectPostgres:
		dialector = postgres.Open(trimmed)
	default:
		dialector = sqlite.Open(trimmed)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.GormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: sql handle: %w", err)
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 20
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return db, nil
}

// DetectDialect infers the dialect from a DSN string.
func DetectDialect(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") || strings.Contains(lower, "sslmode="):
		return DialectPostgres
	default:
		return DialectSQLite
	}
}

// Migrate creates or updates every table plus the pending-invite index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Invite{},
		&models.Event{},
		&models.EventParticipant{},
		&models.Notification{},
		&models.NotificationSettings{},
		&models.File{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}

	// At most one pending invite per (group, email).
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_convites_pendentes ON convites_grupo (group_id, email) WHERE status = 'pending'",
	).Error; err != nil {
		return fmt.Errorf("db: pending invite index: %w", err)
	}
	return nil
}
