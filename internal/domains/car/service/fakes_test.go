package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sort"
	"sync"
	"time"

	"carrental-backend/internal/domains/car/model"
	"carrental-backend/internal/domains/car/repository"

	"github.com/google/uuid"
)

// ============================================
// IN-MEMORY REPOSITORY
// ============================================

// storedCar keeps flags nullable like the cars table does
type storedCar struct {
	car                         model.Car
	available, featured, hidden *bool
}

type memState struct {
	cars     map[uuid.UUID]storedCar
	pricing  map[uuid.UUID]model.Pricing
	images   map[uuid.UUID][]model.Image
	features map[uuid.UUID][]model.Feature
	specs    map[uuid.UUID][]model.Specification
}

func (s memState) clone() memState {
	out := memState{
		cars:     make(map[uuid.UUID]storedCar, len(s.cars)),
		pricing:  make(map[uuid.UUID]model.Pricing, len(s.pricing)),
		images:   make(map[uuid.UUID][]model.Image, len(s.images)),
		features: make(map[uuid.UUID][]model.Feature, len(s.features)),
		specs:    make(map[uuid.UUID][]model.Specification, len(s.specs)),
	}
	for k, v := range s.cars {
		out.cars[k] = v
	}
	for k, v := range s.pricing {
		out.pricing[k] = v
	}
	for k, v := range s.images {
		out.images[k] = append([]model.Image(nil), v...)
	}
	for k, v := range s.features {
		out.features[k] = append([]model.Feature(nil), v...)
	}
	for k, v := range s.specs {
		out.specs[k] = append([]model.Specification(nil), v...)
	}
	return out
}

// memRepo implements repository.Repository. WithTx snapshots the state and
// restores it when fn fails.
type memRepo struct {
	mu    sync.Mutex
	state memState
	clock time.Time

	failOn map[string]error
	calls  []string
}

func newMemRepo() *memRepo {
	return &memRepo{
		state: memState{
			cars:     map[uuid.UUID]storedCar{},
			pricing:  map[uuid.UUID]model.Pricing{},
			images:   map[uuid.UUID][]model.Image{},
			features: map[uuid.UUID][]model.Feature{},
			specs:    map[uuid.UUID][]model.Specification{},
		},
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failOn: map[string]error{},
	}
}

var _ repository.Repository = (*memRepo)(nil)

// enter records the call and returns the injected failure, if any.
// Callers hold r.mu.
func (r *memRepo) enter(method string) error {
	r.calls = append(r.calls, method)
	return r.failOn[method]
}

func (r *memRepo) fail(method string, err error) { r.failOn[method] = err }

func (r *memRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *memRepo) called(method string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == method {
			return true
		}
	}
	return false
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *memRepo) WithTx(ctx context.Context, fn func(repo repository.Repository) error) error {
	r.mu.Lock()
	snapshot := r.state.clone()
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.state = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memRepo) resolve(sc storedCar) *model.Car {
	car := sc.car
	flags := model.ResolveFlags(sc.available, sc.featured, sc.hidden)
	car.Available, car.Featured, car.Hidden = flags.Available, flags.Featured, flags.Hidden
	return &car
}

func (r *memRepo) GetBaseByID(ctx context.Context, id uuid.UUID) (*model.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetBaseByID"); err != nil {
		return nil, err
	}
	sc, ok := r.state.cars[id]
	if !ok {
		return nil, nil
	}
	return r.resolve(sc), nil
}

func (r *memRepo) GetBaseBySlug(ctx context.Context, slug string) (*model.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetBaseBySlug"); err != nil {
		return nil, err
	}
	for _, sc := range r.state.cars {
		if sc.car.Slug == slug {
			return r.resolve(sc), nil
		}
	}
	return nil, nil
}

func (r *memRepo) InsertCar(ctx context.Context, car *model.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("InsertCar"); err != nil {
		return err
	}
	car.ID = uuid.New()
	car.CreatedAt = r.tick()
	car.UpdatedAt = car.CreatedAt
	available, featured, hidden := car.Available, car.Featured, car.Hidden
	r.state.cars[car.ID] = storedCar{car: *car, available: &available, featured: &featured, hidden: &hidden}
	return nil
}

func (r *memRepo) UpdateCar(ctx context.Context, id uuid.UUID, patch repository.CarPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("UpdateCar"); err != nil {
		return false, err
	}
	sc, ok := r.state.cars[id]
	if !ok {
		return false, nil
	}
	if patch.Name.Set {
		sc.car.Name = patch.Name.Value
	}
	if patch.Slug.Set {
		sc.car.Slug = patch.Slug.Value
	}
	if patch.Category.Set {
		sc.car.Category = patch.Category.Value
	}
	if patch.Description.Set {
		sc.car.Description = patch.Description.Ptr()
	}
	if patch.ShortDescription.Set {
		sc.car.ShortDescription = patch.ShortDescription.Ptr()
	}
	if patch.Available.Set {
		sc.available = patch.Available.Ptr()
	}
	if patch.Featured.Set {
		sc.featured = patch.Featured.Ptr()
	}
	if patch.Hidden.Set {
		sc.hidden = patch.Hidden.Ptr()
	}
	sc.car.UpdatedAt = r.tick()
	r.state.cars[id] = sc
	return true, nil
}

func (r *memRepo) DeleteCar(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeleteCar"); err != nil {
		return err
	}
	delete(r.state.cars, id)
	return nil
}

func (r *memRepo) GetAggregateByID(ctx context.Context, id uuid.UUID) (*model.AggregateRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetAggregateByID"); err != nil {
		return nil, err
	}
	sc, ok := r.state.cars[id]
	if !ok {
		return nil, nil
	}
	return r.aggregateRow(sc), nil
}

func (r *memRepo) GetAggregateBySlug(ctx context.Context, slug string) (*model.AggregateRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetAggregateBySlug"); err != nil {
		return nil, err
	}
	for _, sc := range r.state.cars {
		if sc.car.Slug == slug {
			return r.aggregateRow(sc), nil
		}
	}
	return nil, nil
}

// aggregateRow mimics the SQL: pricing as a bare object, children as arrays
// or null when empty
func (r *memRepo) aggregateRow(sc storedCar) *model.AggregateRow {
	id := sc.car.ID
	row := &model.AggregateRow{
		ID:               id,
		Slug:             sc.car.Slug,
		Name:             sc.car.Name,
		Category:         sc.car.Category,
		Description:      sc.car.Description,
		ShortDescription: sc.car.ShortDescription,
		Available:        sc.available,
		Featured:         sc.featured,
		Hidden:           sc.hidden,
		CreatedBy:        sc.car.CreatedBy,
		CreatedAt:        sc.car.CreatedAt,
		UpdatedAt:        sc.car.UpdatedAt,
	}
	if p, ok := r.state.pricing[id]; ok {
		row.Pricing = mustJSON(p)
	}
	if imgs := r.state.images[id]; len(imgs) > 0 {
		row.Images = mustJSON(imgs)
	}
	if fs := r.state.features[id]; len(fs) > 0 {
		row.Features = mustJSON(fs)
	}
	if ss := r.state.specs[id]; len(ss) > 0 {
		row.Specifications = mustJSON(ss)
	}
	return row
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func (r *memRepo) UpsertPricing(ctx context.Context, p *model.Pricing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("UpsertPricing"); err != nil {
		return err
	}
	if existing, ok := r.state.pricing[p.CarID]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uuid.New()
	}
	r.state.pricing[p.CarID] = *p
	return nil
}

func (r *memRepo) DeletePricing(ctx context.Context, carID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeletePricing"); err != nil {
		return err
	}
	delete(r.state.pricing, carID)
	return nil
}

func (r *memRepo) InsertImages(ctx context.Context, images []model.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("InsertImages"); err != nil {
		return err
	}
	for _, img := range images {
		img.ID = uuid.New()
		r.state.images[img.CarID] = append(r.state.images[img.CarID], img)
	}
	return nil
}

func (r *memRepo) UpsertImages(ctx context.Context, images []model.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("UpsertImages"); err != nil {
		return err
	}
	for _, img := range images {
		stored := r.state.images[img.CarID]
		replaced := false
		for i := range stored {
			if stored[i].Path == img.Path {
				img.ID = stored[i].ID
				stored[i] = img
				replaced = true
				break
			}
		}
		if !replaced {
			img.ID = uuid.New()
			stored = append(stored, img)
		}
		r.state.images[img.CarID] = stored
	}
	return nil
}

func (r *memRepo) ListImagePaths(ctx context.Context, carID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListImagePaths"); err != nil {
		return nil, err
	}
	var paths []string
	for _, img := range r.state.images[carID] {
		paths = append(paths, img.Path)
	}
	return paths, nil
}

func (r *memRepo) DeleteImagesByPaths(ctx context.Context, carID uuid.UUID, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeleteImagesByPaths"); err != nil {
		return err
	}
	drop := make(map[string]bool, len(paths))
	for _, p := range paths {
		drop[p] = true
	}
	var kept []model.Image
	for _, img := range r.state.images[carID] {
		if !drop[img.Path] {
			kept = append(kept, img)
		}
	}
	r.state.images[carID] = kept
	return nil
}

func (r *memRepo) DeleteImages(ctx context.Context, carID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeleteImages"); err != nil {
		return err
	}
	delete(r.state.images, carID)
	return nil
}

func (r *memRepo) InsertFeatures(ctx context.Context, features []model.Feature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("InsertFeatures"); err != nil {
		return err
	}
	for _, f := range features {
		f.ID = uuid.New()
		r.state.features[f.CarID] = append(r.state.features[f.CarID], f)
	}
	return nil
}

func (r *memRepo) DeleteFeatures(ctx context.Context, carID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeleteFeatures"); err != nil {
		return err
	}
	delete(r.state.features, carID)
	return nil
}

func (r *memRepo) InsertSpecifications(ctx context.Context, specs []model.Specification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("InsertSpecifications"); err != nil {
		return err
	}
	for _, s := range specs {
		s.ID = uuid.New()
		r.state.specs[s.CarID] = append(r.state.specs[s.CarID], s)
	}
	return nil
}

func (r *memRepo) DeleteSpecifications(ctx context.Context, carID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeleteSpecifications"); err != nil {
		return err
	}
	delete(r.state.specs, carID)
	return nil
}

func (r *memRepo) visible(sc storedCar) bool {
	flags := model.ResolveFlags(sc.available, sc.featured, sc.hidden)
	return flags.Available && !flags.Hidden
}

func (r *memRepo) ListCars(ctx context.Context, filter repository.ListFilter) ([]model.ListingRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListCars"); err != nil {
		return nil, err
	}

	var matched []storedCar
	for _, sc := range r.state.cars {
		if filter.VisibleOnly && !r.visible(sc) {
			continue
		}
		if filter.Category != nil && sc.car.Category != *filter.Category {
			continue
		}
		if filter.ExcludeID != nil && sc.car.ID == *filter.ExcludeID {
			continue
		}
		matched = append(matched, sc)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if filter.Order == repository.OrderFeaturedFirst {
			fi := matched[i].featured != nil && *matched[i].featured
			fj := matched[j].featured != nil && *matched[j].featured
			if fi != fj {
				return fi
			}
		}
		return matched[i].car.CreatedAt.After(matched[j].car.CreatedAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	rows := make([]model.ListingRow, 0, len(matched))
	for _, sc := range matched {
		row := model.ListingRow{
			ID:               sc.car.ID,
			Slug:             sc.car.Slug,
			Name:             sc.car.Name,
			Category:         sc.car.Category,
			ShortDescription: sc.car.ShortDescription,
			Available:        sc.available,
			Featured:         sc.featured,
			Hidden:           sc.hidden,
			CreatedAt:        sc.car.CreatedAt,
			UpdatedAt:        sc.car.UpdatedAt,
		}
		if p, ok := r.state.pricing[sc.car.ID]; ok {
			row.Pricing = mustJSON([]model.Pricing{p})
		}
		if imgs := r.state.images[sc.car.ID]; len(imgs) > 0 {
			row.Images = mustJSON(imgs)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *memRepo) ListVisibleCategories(ctx context.Context) ([]*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListVisibleCategories"); err != nil {
		return nil, err
	}
	var out []*string
	for _, sc := range r.state.cars {
		if r.visible(sc) {
			category := sc.car.Category
			out = append(out, &category)
		}
	}
	return out, nil
}

// seed inserts a car directly, bypassing the service
func (r *memRepo) seed(name, category string, available, featured, hidden *bool, imagePaths ...string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	created := r.tick()
	r.state.cars[id] = storedCar{
		car: model.Car{
			ID: id, Slug: name, Name: name, Category: category,
			CreatedAt: created, UpdatedAt: created,
		},
		available: available,
		featured:  featured,
		hidden:    hidden,
	}
	for i, p := range imagePaths {
		order := i
		r.state.images[id] = append(r.state.images[id], model.Image{
			ID: uuid.New(), CarID: id, URL: "https://cdn.example.com/" + p, Path: p, SortOrder: &order,
		})
	}
	return id
}

func (r *memRepo) imagePaths(id uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, img := range r.state.images[id] {
		out = append(out, img.Path)
	}
	return out
}

// ============================================
// STORAGE / CACHE / REPORTER FAKES
// ============================================

type fakeStorage struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	removed   [][]string
	removeErr error
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: map[string][]byte{}}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeStorage) RemoveObjects(ctx context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, append([]string(nil), keys...))
	return s.removeErr
}

type fakeCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	patterns []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

type report struct {
	operation string
	err       error
	fields    map[string]interface{}
}

type recordingReporter struct {
	mu      sync.Mutex
	reports []report
}

func (r *recordingReporter) Report(ctx context.Context, operation string, err error, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report{operation: operation, err: err, fields: fields})
}

func (r *recordingReporter) operations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.reports))
	for i, rep := range r.reports {
		out[i] = rep.operation
	}
	return out
}

var errStore = errors.New("store unavailable")
