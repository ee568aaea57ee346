package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foozadmin/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// storageEntry is one persisted key/value pair.
type storageEntry struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Path      string    `gorm:"primaryKey;size:255"`
	Value     string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	UpdatedAt time.Time
}

func (storageEntry) TableName() string { return "storage_entries" }

// OpenDB opens the database behind a DSN. Postgres DSNs ("postgres://",
// "postgresql://" or key=value strings containing "host=") use the postgres
// driver; anything else is treated as a sqlite file name.
func OpenDB(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if IsPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// IsPostgresDSN reports whether dsn addresses a postgres server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// GormStore persists the session in a storage_entries table.
type GormStore struct {
	db   *gorm.DB
	opts options
}

// NewGormStore migrates the storage table and returns the store.
func NewGormStore(db *gorm.DB, opts ...Option) (*GormStore, error) {
	if err := db.AutoMigrate(&storageEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session storage: %w", err)
	}
	return &GormStore{db: db, opts: buildOptions(opts)}, nil
}

// Set upserts both entries in one transaction.
func (s *GormStore) Set(ctx context.Context, token string, user models.User, ttl time.Duration) error {
	raw, err := encodeUser(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	expires := s.opts.now().Add(ttl)
	rows := []storageEntry{
		{Name: TokenKey, Path: Path, Value: token, ExpiresAt: expires},
		{Name: UserKey, Path: Path, Value: raw, ExpiresAt: expires},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// CurrentUser returns the stored user if present, unexpired and readable.
func (s *GormStore) CurrentUser(ctx context.Context) (*models.User, bool) {
	raw, ok := s.get(ctx, UserKey)
	if !ok {
		return nil, false
	}
	return decodeUser(raw, s.opts.log)
}

// Token returns the stored token or "".
func (s *GormStore) Token(ctx context.Context) string {
	token, _ := s.get(ctx, TokenKey)
	return token
}

// Clear deletes both entries.
func (s *GormStore) Clear(ctx context.Context) error {
	res := s.db.WithContext(ctx).
		Where("name IN ? AND path = ?", []string{TokenKey, UserKey}, Path).
		Delete(&storageEntry{})
	if res.Error != nil {
		return fmt.Errorf("failed to clear session: %w", res.Error)
	}
	return nil
}

// get reads an entry and lazily deletes it once expired. Storage errors are
// logged and read as absent.
func (s *GormStore) get(ctx context.Context, name string) (string, bool) {
	var e storageEntry
	err := s.db.WithContext(ctx).First(&e, "name = ? AND path = ?", name, Path).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.opts.log.WithError(err).WithField("entry", name).Warn("failed to read session entry")
		}
		return "", false
	}
	if !s.opts.now().Before(e.ExpiresAt) {
		if err := s.db.WithContext(ctx).Delete(&e).Error; err != nil {
			s.opts.log.WithError(err).WithField("entry", name).Warn("failed to delete expired session entry")
		}
		return "", false
	}
	return e.Value, true
}
