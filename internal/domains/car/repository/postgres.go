package repository

import (
	"context"
	"errors"
	"fmt"

	"carrental-backend/internal/domains/car/model"
	"carrental-backend/internal/shared/utils"
	"carrental-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Pool is what the repository needs from *pgxpool.Pool
type Pool interface {
	database.DBTX
	database.TxBeginner
}

// postgresRepository runs raw SQL either on the pool or on a transaction.
// beginner is nil when the repository is bound to a transaction.
type postgresRepository struct {
	db       database.DBTX
	beginner database.TxBeginner
}

// NewPostgresRepository - Constructor
func NewPostgresRepository(pool Pool) Repository {
	return &postgresRepository{
		db:       pool,
		beginner: pool,
	}
}

func (r *postgresRepository) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	if r.beginner == nil {
		// already inside a transaction
		return fn(r)
	}
	return database.WithTransaction(ctx, r.beginner, func(tx pgx.Tx) error {
		return fn(&postgresRepository{db: tx})
	})
}

// ============================================
// BASE RECORD
// ============================================

func (r *postgresRepository) GetBaseByID(ctx context.Context, id uuid.UUID) (*model.Car, error) {
	query := "SELECT " + baseColumns + " FROM cars c WHERE c.id = $1"
	return r.getBase(ctx, query, id)
}

func (r *postgresRepository) GetBaseBySlug(ctx context.Context, slug string) (*model.Car, error) {
	query := "SELECT " + baseColumns + " FROM cars c WHERE c.slug = $1"
	return r.getBase(ctx, query, slug)
}

func (r *postgresRepository) getBase(ctx context.Context, query string, key interface{}) (*model.Car, error) {
	var car model.Car
	var available, featured, hidden *bool
	err := r.db.QueryRow(ctx, query, key).Scan(
		&car.ID, &car.Slug, &car.Name, &car.Category, &car.Description, &car.ShortDescription,
		&available, &featured, &hidden, &car.CreatedBy, &car.CreatedAt, &car.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get car: %w", err)
	}

	flags := model.ResolveFlags(available, featured, hidden)
	car.Available, car.Featured, car.Hidden = flags.Available, flags.Featured, flags.Hidden
	return &car, nil
}

// InsertCar writes the root record and fills ID, CreatedAt and UpdatedAt
func (r *postgresRepository) InsertCar(ctx context.Context, car *model.Car) error {
	query := `
		INSERT INTO cars (slug, name, category, description, short_description,
			available, featured, hidden, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		car.Slug, car.Name, car.Category, car.Description, car.ShortDescription,
		car.Available, car.Featured, car.Hidden, car.CreatedBy,
	).Scan(&car.ID, &car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert car: %w", err)
	}
	return nil
}

// UpdateCar applies a sparse patch and reports whether a row matched.
// An empty patch is a no-op that reports true.
func (r *postgresRepository) UpdateCar(ctx context.Context, id uuid.UUID, patch CarPatch) (bool, error) {
	query, args, ok := buildPatchQuery(id, patch)
	if !ok {
		return true, nil
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update car: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) DeleteCar(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM cars WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	return nil
}

// ============================================
// AGGREGATE
// ============================================

func (r *postgresRepository) GetAggregateByID(ctx context.Context, id uuid.UUID) (*model.AggregateRow, error) {
	return r.getAggregate(ctx, aggregateSelect+"\tWHERE c.id = $1", id)
}

func (r *postgresRepository) GetAggregateBySlug(ctx context.Context, slug string) (*model.AggregateRow, error) {
	return r.getAggregate(ctx, aggregateSelect+"\tWHERE c.slug = $1", slug)
}

func (r *postgresRepository) getAggregate(ctx context.Context, query string, key interface{}) (*model.AggregateRow, error) {
	var row model.AggregateRow
	err := r.db.QueryRow(ctx, query, key).Scan(
		&row.ID, &row.Slug, &row.Name, &row.Category, &row.Description, &row.ShortDescription,
		&row.Available, &row.Featured, &row.Hidden, &row.CreatedBy, &row.CreatedAt, &row.UpdatedAt,
		&row.Pricing, &row.Images, &row.Features, &row.Specifications,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get car aggregate: %w", err)
	}
	return &row, nil
}

// ============================================
// PRICING
// ============================================

// UpsertPricing keeps exactly one pricing row per car
func (r *postgresRepository) UpsertPricing(ctx context.Context, p *model.Pricing) error {
	query := `
		INSERT INTO car_pricing (car_id, base_price, weekly_price, monthly_price, deposit, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (car_id) DO UPDATE SET
			base_price    = EXCLUDED.base_price,
			weekly_price  = EXCLUDED.weekly_price,
			monthly_price = EXCLUDED.monthly_price,
			deposit       = EXCLUDED.deposit,
			currency      = EXCLUDED.currency,
			updated_at    = NOW()
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		p.CarID, p.BasePrice, p.WeeklyPrice, p.MonthlyPrice, p.Deposit, p.Currency,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upsert pricing: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeletePricing(ctx context.Context, carID uuid.UUID) error {
	return r.deleteByCar(ctx, "car_pricing", carID)
}

// ============================================
// IMAGES
// ============================================

const imageColumns = 6

func imageInsert(images []model.Image) (string, []interface{}) {
	args := make([]interface{}, 0, len(images)*imageColumns)
	for i, img := range images {
		args = append(args, img.CarID, img.URL, img.Path, img.IsPrimary, img.SortOrder, i)
	}
	query := "INSERT INTO car_images (car_id, url, path, is_primary, sort_order, position) VALUES " +
		utils.Placeholders(len(images), imageColumns, 1)
	return query, args
}

func (r *postgresRepository) InsertImages(ctx context.Context, images []model.Image) error {
	if len(images) == 0 {
		return nil
	}
	query, args := imageInsert(images)
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert images: %w", err)
	}
	return nil
}

// UpsertImages inserts or updates in place keyed by (car_id, path)
func (r *postgresRepository) UpsertImages(ctx context.Context, images []model.Image) error {
	if len(images) == 0 {
		return nil
	}
	query, args := imageInsert(images)
	query += `
		ON CONFLICT (car_id, path) DO UPDATE SET
			url        = EXCLUDED.url,
			is_primary = EXCLUDED.is_primary,
			sort_order = EXCLUDED.sort_order,
			position   = EXCLUDED.position
	`
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert images: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListImagePaths(ctx context.Context, carID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, "SELECT path FROM car_images WHERE car_id = $1 ORDER BY position", carID)
	if err != nil {
		return nil, fmt.Errorf("list image paths: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan image paths: %w", err)
	}
	return paths, nil
}

func (r *postgresRepository) DeleteImagesByPaths(ctx context.Context, carID uuid.UUID, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, "DELETE FROM car_images WHERE car_id = $1 AND path = ANY($2)", carID, paths)
	if err != nil {
		return fmt.Errorf("delete images by path: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteImages(ctx context.Context, carID uuid.UUID) error {
	return r.deleteByCar(ctx, "car_images", carID)
}

// ============================================
// FEATURES & SPECIFICATIONS
// ============================================

func (r *postgresRepository) InsertFeatures(ctx context.Context, features []model.Feature) error {
	if len(features) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(features)*4)
	for i, f := range features {
		args = append(args, f.CarID, f.Name, f.Icon, i)
	}
	query := "INSERT INTO car_features (car_id, name, icon, position) VALUES " +
		utils.Placeholders(len(features), 4, 1)
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert features: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteFeatures(ctx context.Context, carID uuid.UUID) error {
	return r.deleteByCar(ctx, "car_features", carID)
}

func (r *postgresRepository) InsertSpecifications(ctx context.Context, specs []model.Specification) error {
	if len(specs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(specs)*4)
	for i, s := range specs {
		args = append(args, s.CarID, s.Name, s.Value, i)
	}
	query := "INSERT INTO car_specifications (car_id, name, value, position) VALUES " +
		utils.Placeholders(len(specs), 4, 1)
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert specifications: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteSpecifications(ctx context.Context, carID uuid.UUID) error {
	return r.deleteByCar(ctx, "car_specifications", carID)
}

// deleteByCar: table is always one of the constants above, never user input
func (r *postgresRepository) deleteByCar(ctx context.Context, table string, carID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM "+table+" WHERE car_id = $1", carID); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// ============================================
// LISTINGS
// ============================================

func (r *postgresRepository) ListCars(ctx context.Context, filter ListFilter) ([]model.ListingRow, error) {
	query, args := buildListingQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	defer rows.Close()

	result := make([]model.ListingRow, 0)
	for rows.Next() {
		var row model.ListingRow
		if err := rows.Scan(
			&row.ID, &row.Slug, &row.Name, &row.Category, &row.ShortDescription,
			&row.Available, &row.Featured, &row.Hidden, &row.CreatedAt, &row.UpdatedAt,
			&row.Pricing, &row.Images,
		); err != nil {
			return nil, fmt.Errorf("scan car row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// ListVisibleCategories returns the raw category column of every visible
// car; filtering and de-duplication happen in the service
func (r *postgresRepository) ListVisibleCategories(ctx context.Context) ([]*string, error) {
	rows, err := r.db.Query(ctx, "SELECT c.category FROM cars c WHERE "+visibleClause)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[*string])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return categories, nil
}
