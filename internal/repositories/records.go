// Package repositories is the gorm storage of the development backend.
package repositories

import (
	"errors"
	"time"

	"foozadmin/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write collides with existing data.
	ErrConflict = errors.New("record conflict")
)

// UserRecord is a stored operator account.
type UserRecord struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string
	Role         string
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (UserRecord) TableName() string { return "users" }

// Model strips the password hash.
func (r UserRecord) Model() models.User {
	return models.User{ID: r.ID, Email: r.Email, Name: r.Name, Role: r.Role}
}

// CategoryRecord is a stored category.
type CategoryRecord struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Slug      string `gorm:"uniqueIndex;not null"`
	UpdatedAt time.Time
}

func (CategoryRecord) TableName() string { return "categories" }

func (r CategoryRecord) Model() models.Category {
	return models.Category{ID: r.ID, Name: r.Name, Slug: r.Slug}
}

func categoryRecord(c models.Category) CategoryRecord {
	return CategoryRecord{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

// ProductRecord is a stored product. List valued fields are kept as JSON.
type ProductRecord struct {
	ID                 string `gorm:"primaryKey"`
	Name               string `gorm:"not null"`
	Description        string
	Price              float64
	DiscountPercentage *float64
	CategoryID         string `gorm:"index"`
	Stock              int
	Images             []string      `gorm:"serializer:json"`
	GlbURL             string
	ColorIDs           []string      `gorm:"serializer:json"`
	AccessoryIDs       []string      `gorm:"serializer:json"`
	Sizes              []models.Size `gorm:"serializer:json"`
	IsActive           bool
	UpdatedAt          time.Time
}

func (ProductRecord) TableName() string { return "products" }

func (r ProductRecord) Model() models.Product {
	return models.Product{
		ID:                 r.ID,
		Name:               r.Name,
		Description:        r.Description,
		Price:              r.Price,
		DiscountPercentage: r.DiscountPercentage,
		CategoryID:         r.CategoryID,
		Stock:              r.Stock,
		Images:             r.Images,
		GlbURL:             r.GlbURL,
		ColorIDs:           r.ColorIDs,
		AccessoryIDs:       r.AccessoryIDs,
		Sizes:              r.Sizes,
		IsActive:           r.IsActive,
	}
}

func productRecord(p models.Product) ProductRecord {
	return ProductRecord{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		CategoryID:         p.CategoryID,
		Stock:              p.Stock,
		Images:             p.Images,
		GlbURL:             p.GlbURL,
		ColorIDs:           p.ColorIDs,
		AccessoryIDs:       p.AccessoryIDs,
		Sizes:              p.Sizes,
		IsActive:           p.IsActive,
	}
}

// MediaRecord is a stored asset.
type MediaRecord struct {
	ID        string `gorm:"primaryKey"`
	URL       string `gorm:"not null"`
	Name      string
	Type      string `gorm:"index"`
	Size      *int64
	Content   []byte
	CreatedAt time.Time `gorm:"index"`
}

func (MediaRecord) TableName() string { return "media" }

func (r MediaRecord) Model() models.MediaFile {
	return models.MediaFile{
		ID:        r.ID,
		URL:       r.URL,
		Name:      r.Name,
		Type:      models.MediaType(r.Type),
		Size:      r.Size,
		CreatedAt: r.CreatedAt,
	}
}

// AutoMigrate creates every table of the development backend.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserRecord{}, &CategoryRecord{}, &ProductRecord{}, &MediaRecord{})
}
