package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaFilter selects one page of the media library. An empty Type matches
// every type.
type MediaFilter struct {
	Type  string
	Page  int
	Limit int
}

// MediaRepository defines the interface for media data access.
type MediaRepository interface {
	List(filter MediaFilter) ([]MediaRecord, int64, error)
	GetByID(id string) (*MediaRecord, error)
	Create(media *MediaRecord) error
	Delete(id string) error
	DeleteMany(ids []string) error
}

// GORMMediaRepository is a GORM implementation of MediaRepository.
type GORMMediaRepository struct {
	db *gorm.DB
}

// NewGORMMediaRepository creates a new instance of GORMMediaRepository.
func NewGORMMediaRepository(db *gorm.DB) *GORMMediaRepository {
	return &GORMMediaRepository{db: db}
}

// List returns the requested page, newest first, and the total number of
// matching records.
func (r *GORMMediaRepository) List(filter MediaFilter) ([]MediaRecord, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.Model(&MediaRecord{})
		if filter.Type != "" {
			q = q.Where("type = ?", filter.Type)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count media: %w", err)
	}

	var records []MediaRecord
	err := scope().Omit("content").
		Order("created_at desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list media: %w", err)
	}
	return records, total, nil
}

// GetByID retrieves one record including its content.
func (r *GORMMediaRepository) GetByID(id string) (*MediaRecord, error) {
	var rec MediaRecord
	if err := r.db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("media with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get media by ID %s: %w", id, err)
	}
	return &rec, nil
}

// Create stores a new record.
func (r *GORMMediaRepository) Create(media *MediaRecord) error {
	if media.ID == "" {
		media.ID = uuid.New().String()
	}
	if err := r.db.Create(media).Error; err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

// Delete removes one record.
func (r *GORMMediaRepository) Delete(id string) error {
	res := r.db.Delete(&MediaRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete media: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("media with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteMany removes every record in ids or none of them: when any id is
// unknown nothing is deleted and ErrNotFound names the first missing id.
func (r *GORMMediaRepository) DeleteMany(ids []string) error {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var found []string
		if err := tx.Model(&MediaRecord{}).Where("id IN ?", unique).Pluck("id", &found).Error; err != nil {
			return fmt.Errorf("failed to look up media: %w", err)
		}
		if len(found) != len(unique) {
			present := make(map[string]bool, len(found))
			for _, id := range found {
				present[id] = true
			}
			for _, id := range unique {
				if !present[id] {
					return fmt.Errorf("media with ID %s: %w", id, ErrNotFound)
				}
			}
		}
		if err := tx.Delete(&MediaRecord{}, "id IN ?", unique).Error; err != nil {
			return fmt.Errorf("failed to delete media: %w", err)
		}
		return nil
	})
}
