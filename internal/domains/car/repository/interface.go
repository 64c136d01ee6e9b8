package repository

import (
	"context"

	"carrental-backend/internal/domains/car/model"

	"github.com/google/uuid"
)

// Repository is the data access layer of the car aggregate.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	// WithTx runs fn against a repository bound to one transaction.
	// The transaction is rolled back when fn returns an error.
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	// Base record
	GetBaseByID(ctx context.Context, id uuid.UUID) (*model.Car, error)
	GetBaseBySlug(ctx context.Context, slug string) (*model.Car, error)
	InsertCar(ctx context.Context, car *model.Car) error
	UpdateCar(ctx context.Context, id uuid.UUID, patch CarPatch) (bool, error)
	DeleteCar(ctx context.Context, id uuid.UUID) error

	// Aggregate (fan-out read)
	GetAggregateByID(ctx context.Context, id uuid.UUID) (*model.AggregateRow, error)
	GetAggregateBySlug(ctx context.Context, slug string) (*model.AggregateRow, error)

	// Pricing
	UpsertPricing(ctx context.Context, pricing *model.Pricing) error
	DeletePricing(ctx context.Context, carID uuid.UUID) error

	// Images
	InsertImages(ctx context.Context, images []model.Image) error
	UpsertImages(ctx context.Context, images []model.Image) error
	ListImagePaths(ctx context.Context, carID uuid.UUID) ([]string, error)
	DeleteImagesByPaths(ctx context.Context, carID uuid.UUID, paths []string) error
	DeleteImages(ctx context.Context, carID uuid.UUID) error

	// Features & specifications
	InsertFeatures(ctx context.Context, features []model.Feature) error
	DeleteFeatures(ctx context.Context, carID uuid.UUID) error
	InsertSpecifications(ctx context.Context, specs []model.Specification) error
	DeleteSpecifications(ctx context.Context, carID uuid.UUID) error

	// Listings
	ListCars(ctx context.Context, filter ListFilter) ([]model.ListingRow, error)
	ListVisibleCategories(ctx context.Context) ([]*string, error)
}

// ============================================
// QUERY TYPES
// ============================================

// ListOrder selects the ordering of a listing
type ListOrder int

const (
	// OrderNewest sorts by creation time, newest first
	OrderNewest ListOrder = iota
	// OrderFeaturedFirst puts featured cars first, newest first within each group
	OrderFeaturedFirst
)

// ListFilter drives buildListingQuery
type ListFilter struct {
	VisibleOnly bool
	Category    *string
	ExcludeID   *uuid.UUID
	Order       ListOrder
	Limit       int // 0 = no limit
}

// CarPatch is a sparse update of the root record; unset fields are not
// written, Null clears a nullable column
type CarPatch struct {
	Name             model.Optional[string]
	Slug             model.Optional[string]
	Category         model.Optional[string]
	Description      model.Optional[string]
	ShortDescription model.Optional[string]
	Available        model.Optional[bool]
	Featured         model.Optional[bool]
	Hidden           model.Optional[bool]
}

// IsEmpty reports a patch with no field set
func (p CarPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Slug.Set && !p.Category.Set &&
		!p.Description.Set && !p.ShortDescription.Set &&
		!p.Available.Set && !p.Featured.Set && !p.Hidden.Set
}
