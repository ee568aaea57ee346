package models

// Size is one purchasable size variant of a product.
type Size struct {
	Name       string  `json:"name" validate:"required"`
	Price      float64 `json:"price" validate:"gte=0"`
	Dimensions string  `json:"dimensions,omitempty"`
}

// Product represents a product in the store catalog.
// ID is empty until the backend assigns one on creation.
type Product struct {
	ID                 string   `json:"id,omitempty"`
	Name               string   `json:"name" validate:"min=2"`
	Description        string   `json:"description" validate:"min=10"`
	Price              float64  `json:"price" validate:"gt=0"`
	DiscountPercentage *float64 `json:"discountPercentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	CategoryID         string   `json:"categoryId" validate:"required"`
	Stock              int      `json:"stock" validate:"gte=0"`
	Images             []string `json:"images" validate:"min=1,dive,url"`
	GlbURL             string   `json:"glbUrl,omitempty" validate:"omitempty,url"`
	ColorIDs           []string `json:"colorIds" validate:"min=1,dive,required"`
	AccessoryIDs       []string `json:"accessoryIds,omitempty"`
	Sizes              []Size   `json:"sizes,omitempty" validate:"omitempty,dive"`
	IsActive           bool     `json:"isActive"`
}

// Category groups products.
type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"min=2"`
	Slug string `json:"slug" validate:"min=2"`
}
