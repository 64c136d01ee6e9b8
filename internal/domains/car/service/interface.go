package service

import (
	"context"
	"time"

	"carrental-backend/internal/domains/car/model"

	"github.com/google/uuid"
)

// Service is the car aggregate: reads, listings and multi-table writes.
// Reads return (nil, nil) when the car does not exist.
type Service interface {
	// Base record
	GetBaseByID(ctx context.Context, id uuid.UUID) (*model.Car, error)
	GetBaseBySlug(ctx context.Context, slug string) (*model.Car, error)

	// Aggregate
	GetCarByID(ctx context.Context, id uuid.UUID) (*model.AggregateCar, error)
	GetCarBySlug(ctx context.Context, slug string) (*model.AggregateCar, error)

	// Listings
	ListAdminCars(ctx context.Context) ([]model.AdminCarListItem, error)
	GetVisibleCarsForFleet(ctx context.Context) ([]model.FleetCar, error)
	GetRelatedCars(ctx context.Context, carID uuid.UUID, limit int) ([]model.FleetCar, error)
	GetCategories(ctx context.Context) ([]string, error)

	// Writes
	CreateCar(ctx context.Context, req *model.CreateCarRequest) (*model.AggregateCar, error)
	UpdateCar(ctx context.Context, id uuid.UUID, req *model.UpdateCarRequest) (*model.AggregateCar, error)
	DeleteCar(ctx context.Context, id uuid.UUID) error
}

// ImageService stores admin uploads in the vehicle image bucket
type ImageService interface {
	UploadImage(ctx context.Context, filename string, data []byte) (*model.UploadedImage, error)
}

// ObjectStorage is the narrow view of the image bucket the services use
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	RemoveObjects(ctx context.Context, keys []string) error
}

// Options tunes the car service
type Options struct {
	CacheTTL time.Duration
	// DefaultRelatedLimit applies when GetRelatedCars is called with limit <= 0
	DefaultRelatedLimit int
}

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultRelatedLimit = 3
)
