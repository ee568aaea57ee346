package models

import "time"

// MediaType is the kind of an uploaded asset.
type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaGLB   MediaType = "GLB"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	return t == MediaImage || t == MediaGLB
}

// MediaFile is an uploaded asset. It is immutable once created.
type MediaFile struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Type      MediaType `json:"type"`
	Size      *int64    `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PageMeta describes the position of a page within a listing.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// PaginatedMedia is one page of the media library.
type PaginatedMedia struct {
	Items []MediaFile `json:"items"`
	Meta  PageMeta    `json:"meta"`
}
