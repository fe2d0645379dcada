package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PackageCategory groups service packages
type PackageCategory string

const (
	CategoryPhotography PackageCategory = "photography"
	CategoryVideography PackageCategory = "videography"
	CategoryCombo       PackageCategory = "combo"
	CategoryEditing     PackageCategory = "editing"
)

// AddOnCategory groups optional extras
type AddOnCategory string

const (
	AddOnEquipment AddOnCategory = "equipment"
	AddOnPersonnel AddOnCategory = "personnel"
	AddOnEditing   AddOnCategory = "editing"
	AddOnOther     AddOnCategory = "other"
)

// Package is a purchasable service offering
type Package struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	Category      PackageCategory `db:"category" json:"category"`
	Price         decimal.Decimal `db:"price" json:"price"`
	DurationHours int             `db:"duration_hours" json:"duration_hours"`
	Features      pq.StringArray  `db:"features" json:"features"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// AddOn is an optional extra that can be attached to a booking
type AddOn struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Category    AddOnCategory   `db:"category" json:"category"`
	Price       decimal.Decimal `db:"price" json:"price"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Filter narrows catalog listings
type Filter struct {
	Category   string
	ActiveOnly bool
}
