package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"carrental-backend/internal/domains/car/model"
	"carrental-backend/internal/domains/car/repository"
	"carrental-backend/internal/infrastructure/database"
	"carrental-backend/internal/shared/utils"
	"carrental-backend/pkg/besteffort"
	"carrental-backend/pkg/cache"
	"carrental-backend/pkg/logger"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Cache keys. Every key lives under cachePrefix so writes can drop them all.
const (
	cachePrefix        = "cars:"
	cacheKeyFleet      = cachePrefix + "fleet"
	cacheKeyCategories = cachePrefix + "categories"
)

func slugCacheKey(slug string) string { return cachePrefix + "slug:" + slug }

// Best-effort operation names, used as the metric label
const (
	opRemoveObjects   = "car.remove_objects"
	opInvalidateCache = "car.invalidate_cache"
)

// CarService implements Service
type CarService struct {
	repo       repository.Repository
	storage    ObjectStorage
	cache      cache.Cache // nil disables caching
	translator database.ErrorTranslator
	runner     *besteffort.Runner
	opts       Options
}

// NewCarService - Constructor with DI
func NewCarService(
	repo repository.Repository,
	storage ObjectStorage,
	cache cache.Cache,
	translator database.ErrorTranslator,
	runner *besteffort.Runner,
	opts Options,
) *CarService {
	if translator == nil {
		translator = database.NewPgErrorTranslator()
	}
	if runner == nil {
		runner = besteffort.NewRunner(nil)
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.DefaultRelatedLimit <= 0 {
		opts.DefaultRelatedLimit = defaultRelatedLimit
	}
	return &CarService{
		repo:       repo,
		storage:    storage,
		cache:      cache,
		translator: translator,
		runner:     runner,
		opts:       opts,
	}
}

var _ Service = (*CarService)(nil)

// ============================================
// BASE RECORD
// ============================================

func (s *CarService) GetBaseByID(ctx context.Context, id uuid.UUID) (*model.Car, error) {
	car, err := s.repo.GetBaseByID(ctx, id)
	if err != nil {
		return nil, s.storeError(model.CodeFetchFailed, err)
	}
	return car, nil
}

func (s *CarService) GetBaseBySlug(ctx context.Context, slug string) (*model.Car, error) {
	car, err := s.repo.GetBaseBySlug(ctx, slug)
	if err != nil {
		return nil, s.storeError(model.CodeFetchFailed, err)
	}
	return car, nil
}

// ============================================
// AGGREGATE
// ============================================

func (s *CarService) GetCarByID(ctx context.Context, id uuid.UUID) (*model.AggregateCar, error) {
	return s.loadAggregate(ctx, model.CodeFetchFailed, func(repo repository.Repository) (*model.AggregateRow, error) {
		return repo.GetAggregateByID(ctx, id)
	})
}

// GetCarBySlug backs the public detail page and is cached
func (s *CarService) GetCarBySlug(ctx context.Context, slug string) (*model.AggregateCar, error) {
	key := slugCacheKey(slug)

	var cached model.AggregateCar
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	car, err := s.loadAggregate(ctx, model.CodeFetchFailed, func(repo repository.Repository) (*model.AggregateRow, error) {
		return repo.GetAggregateBySlug(ctx, slug)
	})
	if err != nil || car == nil {
		return car, err
	}

	s.cacheSet(ctx, key, car)
	return car, nil
}

func (s *CarService) loadAggregate(
	ctx context.Context,
	code string,
	fetch func(repo repository.Repository) (*model.AggregateRow, error),
) (*model.AggregateCar, error) {
	row, err := fetch(s.repo)
	if err != nil {
		return nil, s.storeError(code, err)
	}
	if row == nil {
		return nil, nil
	}

	car, err := model.AssembleAggregate(row)
	if err != nil {
		return nil, model.NewStoreError(code, "Stored car data could not be decoded", err)
	}
	return car, nil
}

// ============================================
// LISTINGS
// ============================================

// ListAdminCars lists every car, newest first
func (s *CarService) ListAdminCars(ctx context.Context) ([]model.AdminCarListItem, error) {
	rows, err := s.repo.ListCars(ctx, repository.ListFilter{Order: repository.OrderNewest})
	if err != nil {
		return nil, s.storeError(model.CodeFetchFailed, err)
	}

	items := make([]model.AdminCarListItem, 0, len(rows))
	for i := range rows {
		item, err := model.ToAdminListItem(&rows[i])
		if err != nil {
			return nil, model.NewStoreError(model.CodeFetchFailed, "Stored car data could not be decoded", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// GetVisibleCarsForFleet lists available, non-hidden cars, featured first
func (s *CarService) GetVisibleCarsForFleet(ctx context.Context) ([]model.FleetCar, error) {
	var cached []model.FleetCar
	if s.cacheGet(ctx, cacheKeyFleet, &cached) {
		return cached, nil
	}

	cars, err := s.listFleet(ctx, repository.ListFilter{
		VisibleOnly: true,
		Order:       repository.OrderFeaturedFirst,
	})
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKeyFleet, cars)
	return cars, nil
}

// GetRelatedCars lists visible cars of the same category, excluding carID.
// An unknown car or a car without a category yields an empty list.
func (s *CarService) GetRelatedCars(ctx context.Context, carID uuid.UUID, limit int) ([]model.FleetCar, error) {
	if limit <= 0 {
		limit = s.opts.DefaultRelatedLimit
	}

	base, err := s.repo.GetBaseByID(ctx, carID)
	if err != nil {
		return nil, s.storeError(model.CodeFetchFailed, err)
	}
	if base == nil || strings.TrimSpace(base.Category) == "" {
		return []model.FleetCar{}, nil
	}

	category := base.Category
	return s.listFleet(ctx, repository.ListFilter{
		VisibleOnly: true,
		Category:    &category,
		ExcludeID:   &carID,
		Order:       repository.OrderNewest,
		Limit:       limit,
	})
}

func (s *CarService) listFleet(ctx context.Context, filter repository.ListFilter) ([]model.FleetCar, error) {
	rows, err := s.repo.ListCars(ctx, filter)
	if err != nil {
		return nil, s.storeError(model.CodeFetchFailed, err)
	}

	cars := make([]model.FleetCar, 0, len(rows))
	for i := range rows {
		car, err := model.ToFleetCar(&rows[i])
		if err != nil {
			return nil, model.NewStoreError(model.CodeFetchFailed, "Stored car data could not be decoded", err)
		}
		cars = append(cars, car)
	}
	return cars, nil
}

// GetCategories returns the distinct non-blank categories of visible cars, sorted
func (s *CarService) GetCategories(ctx context.Context) ([]string, error) {
	var cached []string
	if s.cacheGet(ctx, cacheKeyCategories, &cached) {
		return cached, nil
	}

	raw, err := s.repo.ListVisibleCategories(ctx)
	if err != nil {
		return nil, s.storeError(model.CodeFetchFailed, err)
	}

	categories := distinctCategories(raw)
	s.cacheSet(ctx, cacheKeyCategories, categories)
	return categories, nil
}

func distinctCategories(raw []*string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == nil || strings.TrimSpace(*c) == "" {
			continue
		}
		if _, ok := seen[*c]; ok {
			continue
		}
		seen[*c] = struct{}{}
		out = append(out, *c)
	}
	sort.Strings(out)
	return out
}

// ============================================
// CREATE
// ============================================

// CreateCar writes the root record and its related rows in one transaction
func (s *CarService) CreateCar(ctx context.Context, req *model.CreateCarRequest) (*model.AggregateCar, error) {
	if req == nil {
		return nil, model.NewValidationError(errors.New("request body is required"))
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	slug, err := slugFor(req.Name)
	if err != nil {
		return nil, err
	}

	flags := model.ResolveFlags(req.Available, req.Featured, req.Hidden)
	car := &model.Car{
		Slug:             slug,
		Name:             req.Name,
		Category:         req.Category,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Available:        flags.Available,
		Featured:         flags.Featured,
		Hidden:           flags.Hidden,
		CreatedBy:        req.CreatedBy,
	}

	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.InsertCar(ctx, car); err != nil {
			return err
		}
		if req.Pricing != nil {
			pricing := req.Pricing.ToPricing(car.ID)
			if err := tx.UpsertPricing(ctx, &pricing); err != nil {
				return err
			}
		}
		if err := tx.InsertImages(ctx, model.ToImages(car.ID, req.Images)); err != nil {
			return err
		}
		if err := tx.InsertFeatures(ctx, model.ToFeatures(car.ID, req.Features)); err != nil {
			return err
		}
		return tx.InsertSpecifications(ctx, model.ToSpecifications(car.ID, req.Specifications))
	})
	if err != nil {
		logger.ErrorWithFields("create car failed", err, map[string]interface{}{"slug": slug})
		return nil, s.storeError(model.CodeCreateFailed, err)
	}

	logger.Info("car created", map[string]interface{}{"car_id": car.ID.String(), "slug": slug})
	s.invalidateCache(ctx)

	created, err := s.GetCarByID(ctx, car.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, model.ErrCarNotFound
	}
	return created, nil
}

// ============================================
// UPDATE
// ============================================

// UpdateCar applies a partial update in one transaction. Stored objects of
// images dropped from the list are removed after commit.
func (s *CarService) UpdateCar(ctx context.Context, id uuid.UUID, req *model.UpdateCarRequest) (*model.AggregateCar, error) {
	if req == nil {
		return nil, model.NewValidationError(errors.New("request body is required"))
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	patch := repository.CarPatch{
		Name:             req.Name,
		Category:         req.Category,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Available:        req.Available,
		Featured:         req.Featured,
		Hidden:           req.Hidden,
	}
	if req.Name.HasValue() {
		slug, err := slugFor(req.Name.Value)
		if err != nil {
			return nil, err
		}
		patch.Slug = model.Some(slug)
	}

	var removedPaths []string
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := applyRootPatch(ctx, tx, id, patch); err != nil {
			return err
		}

		if req.Pricing.HasValue() {
			pricing := req.Pricing.Value.ToPricing(id)
			if err := tx.UpsertPricing(ctx, &pricing); err != nil {
				return err
			}
		}

		if req.Images.Set {
			removed, err := reconcileImages(ctx, tx, id, req.Images.Value)
			if err != nil {
				return err
			}
			removedPaths = removed
		}

		if req.Features.Set {
			if err := tx.DeleteFeatures(ctx, id); err != nil {
				return err
			}
			if err := tx.InsertFeatures(ctx, model.ToFeatures(id, req.Features.Value)); err != nil {
				return err
			}
		}

		if req.Specifications.Set {
			if err := tx.DeleteSpecifications(ctx, id); err != nil {
				return err
			}
			if err := tx.InsertSpecifications(ctx, model.ToSpecifications(id, req.Specifications.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if model.IsNotFound(err) {
			return nil, model.ErrCarNotFound
		}
		logger.ErrorWithFields("update car failed", err, map[string]interface{}{"car_id": id.String()})
		return nil, s.storeError(model.CodeUpdateFailed, err)
	}

	s.removeObjects(ctx, id, removedPaths)
	s.invalidateCache(ctx)

	updated, err := s.GetCarByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.ErrCarNotFound
	}
	return updated, nil
}

// applyRootPatch writes a non-empty patch, or only checks existence
func applyRootPatch(ctx context.Context, tx repository.Repository, id uuid.UUID, patch repository.CarPatch) error {
	if patch.IsEmpty() {
		base, err := tx.GetBaseByID(ctx, id)
		if err != nil {
			return err
		}
		if base == nil {
			return model.ErrCarNotFound
		}
		return nil
	}

	matched, err := tx.UpdateCar(ctx, id, patch)
	if err != nil {
		return err
	}
	if !matched {
		return model.ErrCarNotFound
	}
	return nil
}

// reconcileImages deletes rows whose path is not in incoming, then upserts
// every incoming image. Returns the removed paths.
func reconcileImages(ctx context.Context, tx repository.Repository, id uuid.UUID, incoming []model.ImageInput) ([]string, error) {
	existing, err := tx.ListImagePaths(ctx, id)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]struct{}, len(incoming))
	for _, img := range incoming {
		keep[img.Path] = struct{}{}
	}
	var removed []string
	for _, path := range existing {
		if _, ok := keep[path]; !ok {
			removed = append(removed, path)
		}
	}

	if err := tx.DeleteImagesByPaths(ctx, id, removed); err != nil {
		return nil, err
	}
	if err := tx.UpsertImages(ctx, model.ToImages(id, incoming)); err != nil {
		return nil, err
	}
	return removed, nil
}

// ============================================
// DELETE
// ============================================

// DeleteCar removes the car, its related rows and its stored images.
// Deleting an unknown id succeeds.
func (s *CarService) DeleteCar(ctx context.Context, id uuid.UUID) error {
	paths, err := s.repo.ListImagePaths(ctx, id)
	if err != nil {
		return s.storeError(model.CodeDeleteFailed, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.repo.DeletePricing(gctx, id) })
	g.Go(func() error { return s.repo.DeleteFeatures(gctx, id) })
	g.Go(func() error { return s.repo.DeleteSpecifications(gctx, id) })
	g.Go(func() error { return s.repo.DeleteImages(gctx, id) })
	if err := g.Wait(); err != nil {
		logger.ErrorWithFields("delete car related rows failed", err, map[string]interface{}{"car_id": id.String()})
		return s.storeError(model.CodeDeleteFailed, err)
	}

	if err := s.repo.DeleteCar(ctx, id); err != nil {
		logger.ErrorWithFields("delete car failed", err, map[string]interface{}{"car_id": id.String()})
		return s.storeError(model.CodeDeleteFailed, err)
	}

	s.removeObjects(ctx, id, paths)
	s.invalidateCache(ctx)
	return nil
}

// ============================================
// HELPERS
// ============================================

// slugFor rejects names that produce an empty slug
func slugFor(name string) (string, error) {
	slug := utils.GenerateSlug(name)
	if slug == "" {
		return "", model.NewValidationError(validation.Errors{
			"name": errors.New("name must contain at least one letter or digit"),
		})
	}
	return slug, nil
}

// storeError funnels a store failure through the translator. Domain errors
// pass through unchanged.
func (s *CarService) storeError(code string, err error) error {
	var carErr *model.CarError
	if errors.As(err, &carErr) {
		return err
	}
	if database.IsUniqueViolation(err) {
		code = model.CodeCarConflict
	}
	return model.NewStoreError(code, s.translator.Translate(err), err)
}

func (s *CarService) removeObjects(ctx context.Context, carID uuid.UUID, paths []string) {
	if len(paths) == 0 || s.storage == nil {
		return
	}
	s.runner.Run(ctx, opRemoveObjects, map[string]interface{}{
		"car_id": carID.String(),
		"paths":  paths,
	}, func(ctx context.Context) error {
		return s.storage.RemoveObjects(ctx, paths)
	})
}

func (s *CarService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.runner.Run(ctx, opInvalidateCache, map[string]interface{}{"pattern": cachePrefix + "*"}, func(ctx context.Context) error {
		return s.cache.DeletePattern(ctx, cachePrefix+"*")
	})
}

// cacheGet treats every cache error as a miss
func (s *CarService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return found
}

func (s *CarService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.opts.CacheTTL); err != nil {
		logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
