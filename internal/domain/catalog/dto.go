package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePackageRequest for POST /packages
type CreatePackageRequest struct {
	Title         string           `json:"title" validate:"required,min=2,max=255"`
	Description   string           `json:"description" validate:"max=5000"`
	Category      string           `json:"category" validate:"required,package_category"`
	Price         *decimal.Decimal `json:"price" validate:"required,gte=0"`
	DurationHours int              `json:"duration_hours" validate:"required,gte=1,lte=240"`
	Features      []string         `json:"features" validate:"required,min=1,dive,required,max=255"`
	IsActive      *bool            `json:"is_active"`
}

// UpdatePackageRequest for PUT /packages/{id}; only supplied fields change
type UpdatePackageRequest struct {
	Title         *string          `json:"title" validate:"omitempty,min=2,max=255"`
	Description   *string          `json:"description" validate:"omitempty,max=5000"`
	Category      *string          `json:"category" validate:"omitempty,package_category"`
	Price         *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	DurationHours *int             `json:"duration_hours" validate:"omitempty,gte=1,lte=240"`
	Features      []string         `json:"features" validate:"omitempty,min=1,dive,required,max=255"`
	IsActive      *bool            `json:"is_active"`
}

// CreateAddOnRequest for POST /addons
type CreateAddOnRequest struct {
	Name        string           `json:"name" validate:"required,min=2,max=255"`
	Description string           `json:"description" validate:"max=5000"`
	Category    string           `json:"category" validate:"required,addon_category"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	IsActive    *bool            `json:"is_active"`
}

// UpdateAddOnRequest for PUT /addons/{id}
type UpdateAddOnRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Category    *string          `json:"category" validate:"omitempty,addon_category"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"is_active"`
}

// PackageResponse represents package in API response
type PackageResponse struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	DurationHours int             `json:"duration_hours"`
	Features      []string        `json:"features"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// AddOnResponse represents add-on in API response
type AddOnResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

func PackageResponseFromEntity(p *Package) PackageResponse {
	features := []string(p.Features)
	if features == nil {
		features = []string{}
	}
	return PackageResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Category:      string(p.Category),
		Price:         p.Price,
		DurationHours: p.DurationHours,
		Features:      features,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

func AddOnResponseFromEntity(a *AddOn) AddOnResponse {
	return AddOnResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Category:    string(a.Category),
		Price:       a.Price,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
}
