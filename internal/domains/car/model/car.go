package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Flags holds the three visibility flags of a car
type Flags struct {
	Available bool
	Featured  bool
	Hidden    bool
}

// FlagDefaults is consulted whenever a flag is absent, both when assembling
// a car from the store and when writing a new one
var FlagDefaults = Flags{
	Available: true,
	Featured:  false,
	Hidden:    false,
}

// ResolveFlags fills absent flags from FlagDefaults
func ResolveFlags(available, featured, hidden *bool) Flags {
	flags := FlagDefaults
	if available != nil {
		flags.Available = *available
	}
	if featured != nil {
		flags.Featured = *featured
	}
	if hidden != nil {
		flags.Hidden = *hidden
	}
	return flags
}

// Car is the root record of the aggregate
type Car struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Slug             string     `json:"slug" db:"slug"`
	Name             string     `json:"name" db:"name"`
	Category         string     `json:"category" db:"category"`
	Description      *string    `json:"description" db:"description"`
	ShortDescription *string    `json:"shortDescription" db:"short_description"`
	Available        bool       `json:"available" db:"available"`
	Featured         bool       `json:"featured" db:"featured"`
	Hidden           bool       `json:"hidden" db:"hidden"`
	CreatedBy        *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// Pricing is one-to-one with a car
type Pricing struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	CarID        uuid.UUID        `json:"carId" db:"car_id"`
	BasePrice    decimal.Decimal  `json:"basePrice" db:"base_price"`
	WeeklyPrice  *decimal.Decimal `json:"weeklyPrice,omitempty" db:"weekly_price"`
	MonthlyPrice *decimal.Decimal `json:"monthlyPrice,omitempty" db:"monthly_price"`
	Deposit      *decimal.Decimal `json:"deposit,omitempty" db:"deposit"`
	Currency     string           `json:"currency" db:"currency"`
}

// Image points at an object in the vehicle image bucket.
// Path is the object key and the de-duplication key across updates.
type Image struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CarID     uuid.UUID `json:"carId" db:"car_id"`
	URL       string    `json:"url" db:"url"`
	Path      string    `json:"path" db:"path"`
	IsPrimary bool      `json:"isPrimary" db:"is_primary"`
	SortOrder *int      `json:"sortOrder,omitempty" db:"sort_order"`
}

// Order returns the sort order, 0 when missing
func (i Image) Order() int {
	if i.SortOrder == nil {
		return 0
	}
	return *i.SortOrder
}

type Feature struct {
	ID    uuid.UUID `json:"id" db:"id"`
	CarID uuid.UUID `json:"carId" db:"car_id"`
	Name  string    `json:"name" db:"name"`
	Icon  *string   `json:"icon,omitempty" db:"icon"`
}

type Specification struct {
	ID    uuid.UUID `json:"id" db:"id"`
	CarID uuid.UUID `json:"carId" db:"car_id"`
	Name  string    `json:"name" db:"name"`
	Value string    `json:"value" db:"value"`
}

// AggregateCar is the denormalized view of a car and everything it owns.
// Flags are always resolved.
type AggregateCar struct {
	Car
	Pricing        *Pricing        `json:"pricing"`
	Images         []Image         `json:"images"`
	Features       []Feature       `json:"features"`
	Specifications []Specification `json:"specifications"`
}

// AdminCarListItem is a row of the admin car table
type AdminCarListItem struct {
	ID              uuid.UUID        `json:"id"`
	Slug            string           `json:"slug"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Available       bool             `json:"available"`
	Featured        bool             `json:"featured"`
	Hidden          bool             `json:"hidden"`
	PrimaryImageURL *string          `json:"primaryImageUrl"`
	BasePrice       *decimal.Decimal `json:"basePrice"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// FleetCar is the public shape used by the fleet and related-cars listings
type FleetCar struct {
	ID               uuid.UUID        `json:"id"`
	Slug             string           `json:"slug"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	ShortDescription *string          `json:"shortDescription"`
	IsFeatured       bool             `json:"isFeatured"`
	PrimaryImageURL  *string          `json:"primaryImageUrl"`
	PricePerDay      *decimal.Decimal `json:"pricePerDay"`
}

// UploadedImage is returned by the image upload endpoint; URL and Path are
// what a create or update payload sends back in its images list
type UploadedImage struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}
