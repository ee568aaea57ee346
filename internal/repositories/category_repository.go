package repositories

import (
	"errors"
	"fmt"

	"foozadmin/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	GetAll() ([]models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	Delete(id string) error
}

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

// GetAll retrieves all categories ordered by name.
func (r *GORMCategoryRepository) GetAll() ([]models.Category, error) {
	var records []CategoryRecord
	if err := r.db.Order("name").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get all categories: %w", err)
	}
	categories := make([]models.Category, 0, len(records))
	for _, rec := range records {
		categories = append(categories, rec.Model())
	}
	return categories, nil
}

// Create creates a new category. Slugs are unique.
func (r *GORMCategoryRepository) Create(category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.checkSlug(category.Slug, category.ID); err != nil {
		return err
	}
	rec := categoryRecord(*category)
	if err := r.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update replaces the name and slug of an existing category.
func (r *GORMCategoryRepository) Update(category *models.Category) error {
	if err := r.checkSlug(category.Slug, category.ID); err != nil {
		return err
	}
	res := r.db.Model(&CategoryRecord{ID: category.ID}).Updates(map[string]any{
		"name": category.Name,
		"slug": category.Slug,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category with ID %s: %w", category.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a category that no product references.
func (r *GORMCategoryRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&ProductRecord{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return fmt.Errorf("failed to count products of category %s: %w", id, err)
		}
		if inUse > 0 {
			return fmt.Errorf("category %s is used by %d product(s): %w", id, inUse, ErrConflict)
		}
		res := tx.Delete(&CategoryRecord{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("category with ID %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Exists reports whether a category with id is stored.
func (r *GORMCategoryRepository) Exists(id string) (bool, error) {
	var n int64
	if err := r.db.Model(&CategoryRecord{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to look up category %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *GORMCategoryRepository) checkSlug(slug, id string) error {
	var existing CategoryRecord
	err := r.db.First(&existing, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check slug %s: %w", slug, err)
	}
	if existing.ID != id {
		return fmt.Errorf("slug '%s' already taken: %w", slug, ErrConflict)
	}
	return nil
}
