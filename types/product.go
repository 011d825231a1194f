package types

import (
	"strings"
	"time"
)

// ProductCategory classifies a product or service.
type ProductCategory string

// Supported product categories.
const (
	CategorySoftware   ProductCategory = "Software"
	CategoryHardware   ProductCategory = "Hardware"
	CategoryService    ProductCategory = "Service"
	CategoryEducation  ProductCategory = "Education"
	CategoryHealth     ProductCategory = "Health"
	CategoryFinance    ProductCategory = "Finance"
	CategoryConsumer   ProductCategory = "Consumer"
	CategoryOtherGoods ProductCategory = "Other"
)

var productCategories = []ProductCategory{
	CategorySoftware, CategoryHardware, CategoryService, CategoryEducation,
	CategoryHealth, CategoryFinance, CategoryConsumer, CategoryOtherGoods,
}

// ParseProductCategory matches raw case-insensitively against the supported categories.
func ParseProductCategory(raw string) (ProductCategory, bool) {
	for _, c := range productCategories {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return c, true
		}
	}
	return "", false
}

// ProductStatus is the informational maturity of a product. The order is
// Idea, Prototype, Beta, Launched, Scaling but no transition rules apply.
type ProductStatus string

// Supported product statuses.
const (
	ProductIdea      ProductStatus = "Idea"
	ProductPrototype ProductStatus = "Prototype"
	ProductBeta      ProductStatus = "Beta"
	ProductLaunched  ProductStatus = "Launched"
	ProductScaling   ProductStatus = "Scaling"
)

// ParseProductStatus matches raw case-insensitively against the supported statuses.
func ParseProductStatus(raw string) (ProductStatus, bool) {
	for _, s := range []ProductStatus{ProductIdea, ProductPrototype, ProductBeta, ProductLaunched, ProductScaling} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, true
		}
	}
	return "", false
}

// Product is an item showcased on a founder's profile.
type Product struct {
	// ID is the unique identifier of the product.
	ID int `json:"id" db:"id"`

	// FounderID identifies the owning founder profile (the founder's user id).
	FounderID int `json:"founderId" db:"founder_id"`

	// Name is the product name.
	Name string `json:"name" db:"name"`

	// Description explains what the product does.
	Description string `json:"description" db:"description"`

	// Category classifies the product.
	Category ProductCategory `json:"category" db:"category"`

	// Status is the informational maturity of the product.
	Status ProductStatus `json:"status" db:"status"`

	// URL is an optional external link.
	URL string `json:"url,omitempty" db:"url"`

	// Tags are free-form labels.
	Tags []string `json:"tags" db:"tags"`

	// Image is the served URL of the product image.
	Image string `json:"image,omitempty" db:"image"`

	// CreatedAt is the timestamp when the product was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
