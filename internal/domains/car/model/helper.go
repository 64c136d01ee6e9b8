package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============================================
// RAW ROWS (as returned by joined queries)
// ============================================

// AggregateRow is the result of the fan-out read: the root columns with
// nullable flags plus every child collection as raw JSON
type AggregateRow struct {
	ID               uuid.UUID
	Slug             string
	Name             string
	Category         string
	Description      *string
	ShortDescription *string
	Available        *bool
	Featured         *bool
	Hidden           *bool
	CreatedBy        *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Pricing        json.RawMessage
	Images         json.RawMessage
	Features       json.RawMessage
	Specifications json.RawMessage
}

// ListingRow is one row of a listing query
type ListingRow struct {
	ID               uuid.UUID
	Slug             string
	Name             string
	Category         string
	ShortDescription *string
	Available        *bool
	Featured         *bool
	Hidden           *bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Pricing json.RawMessage
	Images  json.RawMessage
}

// ============================================
// SHAPE NORMALIZATION
// ============================================

// FirstOrNull decodes a joined child that may arrive as an array (first
// element wins), a bare object, or null/absent
func FirstOrNull[T any](raw json.RawMessage) (*T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		return &items[0], nil
	}

	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return &item, nil
}

// DecodeList decodes a joined child collection; null/absent is an empty slice
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// ============================================
// IMAGES
// ============================================

// SortImages orders images ascending by sort order (missing = 0) when at
// least one image carries a sort order. The sort is stable.
func SortImages(images []Image) {
	hasOrder := false
	for _, img := range images {
		if img.SortOrder != nil {
			hasOrder = true
			break
		}
	}
	if !hasOrder {
		return
	}
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Order() < images[j].Order()
	})
}

// PrimaryImage is the first image flagged primary after sorting, else the
// first image, else nil. images is not modified.
func PrimaryImage(images []Image) *Image {
	if len(images) == 0 {
		return nil
	}

	sorted := make([]Image, len(images))
	copy(sorted, images)
	SortImages(sorted)

	for i := range sorted {
		if sorted[i].IsPrimary {
			return &sorted[i]
		}
	}
	return &sorted[0]
}

// CurrentPrice is the base price of the single pricing row, if any
func CurrentPrice(raw json.RawMessage) (*decimal.Decimal, error) {
	pricing, err := FirstOrNull[Pricing](raw)
	if err != nil || pricing == nil {
		return nil, err
	}
	price := pricing.BasePrice
	return &price, nil
}

// ============================================
// ASSEMBLY
// ============================================

// AssembleAggregate composes the denormalized view from a fan-out row
func AssembleAggregate(row *AggregateRow) (*AggregateCar, error) {
	if row == nil {
		return nil, nil
	}

	pricing, err := FirstOrNull[Pricing](row.Pricing)
	if err != nil {
		return nil, fmt.Errorf("pricing: %w", err)
	}
	images, err := DecodeList[Image](row.Images)
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	features, err := DecodeList[Feature](row.Features)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	specs, err := DecodeList[Specification](row.Specifications)
	if err != nil {
		return nil, fmt.Errorf("specifications: %w", err)
	}

	SortImages(images)
	flags := ResolveFlags(row.Available, row.Featured, row.Hidden)

	return &AggregateCar{
		Car: Car{
			ID:               row.ID,
			Slug:             row.Slug,
			Name:             row.Name,
			Category:         row.Category,
			Description:      row.Description,
			ShortDescription: row.ShortDescription,
			Available:        flags.Available,
			Featured:         flags.Featured,
			Hidden:           flags.Hidden,
			CreatedBy:        row.CreatedBy,
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
		},
		Pricing:        pricing,
		Images:         images,
		Features:       features,
		Specifications: specs,
	}, nil
}

// listingDerived holds what every listing shape derives from the joined children
type listingDerived struct {
	primaryImageURL *string
	price           *decimal.Decimal
}

func deriveListing(row *ListingRow) (listingDerived, error) {
	images, err := DecodeList[Image](row.Images)
	if err != nil {
		return listingDerived{}, fmt.Errorf("images: %w", err)
	}
	price, err := CurrentPrice(row.Pricing)
	if err != nil {
		return listingDerived{}, fmt.Errorf("pricing: %w", err)
	}

	var d listingDerived
	if primary := PrimaryImage(images); primary != nil {
		url := primary.URL
		d.primaryImageURL = &url
	}
	d.price = price
	return d, nil
}

// ToAdminListItem projects a listing row to the admin shape
func ToAdminListItem(row *ListingRow) (AdminCarListItem, error) {
	d, err := deriveListing(row)
	if err != nil {
		return AdminCarListItem{}, err
	}
	flags := ResolveFlags(row.Available, row.Featured, row.Hidden)

	return AdminCarListItem{
		ID:              row.ID,
		Slug:            row.Slug,
		Name:            row.Name,
		Category:        row.Category,
		Available:       flags.Available,
		Featured:        flags.Featured,
		Hidden:          flags.Hidden,
		PrimaryImageURL: d.primaryImageURL,
		BasePrice:       d.price,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

// ToFleetCar projects a listing row to the public shape
func ToFleetCar(row *ListingRow) (FleetCar, error) {
	d, err := deriveListing(row)
	if err != nil {
		return FleetCar{}, err
	}
	flags := ResolveFlags(row.Available, row.Featured, row.Hidden)

	return FleetCar{
		ID:               row.ID,
		Slug:             row.Slug,
		Name:             row.Name,
		Category:         row.Category,
		ShortDescription: row.ShortDescription,
		IsFeatured:       flags.Featured,
		PrimaryImageURL:  d.primaryImageURL,
		PricePerDay:      d.price,
	}, nil
}
