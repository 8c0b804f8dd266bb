package suppliers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when no supplier has the requested ID.
var ErrNotFound = errors.New("suppliers: not found")

// SeedObserver is notified of every seeding outcome.
type SeedObserver interface {
	ObserveSeed(source string)
}

// Service owns the canonical in-memory supplier list and mirrors it to the
// repository. Every change is republished to subscribers.
type Service struct {
	repo     Repository
	seeder   *Seeder
	logger   *slog.Logger
	observer SeedObserver

	mu        sync.Mutex
	list      []Supplier
	highWater int64
	loaded    bool
	loadErr   error

	subsMu sync.Mutex
	subs   map[int]func([]Supplier)
	nextID int

	seeding singleflight.Group
}

// ServiceConfig groups optional collaborators.
type ServiceConfig struct {
	Logger   *slog.Logger
	Observer SeedObserver
}

// NewService constructs a Service. Call Init before serving requests.
func NewService(repo Repository, seeder *Seeder, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if seeder == nil {
		seeder = &Seeder{}
	}
	return &Service{
		repo:     repo,
		seeder:   seeder,
		logger:   logger,
		observer: cfg.Observer,
		list:     []Supplier{},
		subs:     make(map[int]func([]Supplier)),
	}
}

// Init loads the list from storage, seeding it when storage has never been seeded.
func (s *Service) Init(ctx context.Context) ([]Supplier, error) {
	list, err := s.seed(ctx, false)
	s.mu.Lock()
	s.loaded = true
	s.loadErr = err
	s.mu.Unlock()
	return list, err
}

// Loaded reports whether Init has completed.
func (s *Service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// LoadErr returns the error of the initial load, if any.
func (s *Service) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// GetAll returns a copy of the current list in insertion order.
func (s *Service) GetAll() []Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneList(s.list)
}

// GetByID looks a supplier up by ID.
func (s *Service) GetByID(id int64) (Supplier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sup := range s.list {
		if sup.ID == id {
			return sup.clone(), true
		}
	}
	return Supplier{}, false
}

// Create assigns the next ID, appends the supplier and persists the list.
func (s *Service) Create(ctx context.Context, draft Draft) (Supplier, error) {
	s.mu.Lock()
	id := s.nextIDLocked()
	created := draft.supplier(id)
	next := append(cloneList(s.list), created)
	if err := s.repo.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return Supplier{}, err
	}
	s.list = next
	s.highWater = id
	snapshot := cloneList(next)
	s.mu.Unlock()

	s.publish(snapshot)
	return created.clone(), nil
}

// Update merges patch into the supplier with the given ID. The ID itself is
// immutable. ErrNotFound leaves the list untouched.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (Supplier, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return Supplier{}, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}
	next := cloneList(s.list)
	updated := patch.apply(next[idx])
	updated.ID = id
	next[idx] = updated
	if err := s.repo.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return Supplier{}, err
	}
	s.list = next
	snapshot := cloneList(next)
	s.mu.Unlock()

	s.publish(snapshot)
	return updated.clone(), nil
}

// Delete removes the supplier with the given ID and reports whether anything
// was removed. Storage is only written when the list changed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	next := make([]Supplier, 0, len(s.list))
	for _, sup := range s.list {
		if sup.ID != id {
			next = append(next, sup.clone())
		}
	}
	if len(next) == len(s.list) {
		s.mu.Unlock()
		return false, nil
	}
	if err := s.repo.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.list = next
	snapshot := cloneList(next)
	s.mu.Unlock()

	s.publish(snapshot)
	return true, nil
}

// ResetToSeed clears durable storage and reseeds from the remote or fallback source.
func (s *Service) ResetToSeed(ctx context.Context) ([]Supplier, error) {
	return s.seed(ctx, true)
}

// Subscribe registers fn and immediately calls it with the current list. The
// returned func removes the subscription.
func (s *Service) Subscribe(fn func([]Supplier)) func() {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	fn(s.GetAll())

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Service) publish(list []Supplier) {
	s.subsMu.Lock()
	listeners := make([]func([]Supplier), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range listeners {
		fn(cloneList(list))
	}
}

// seed coalesces concurrent callers with the same force flag.
func (s *Service) seed(ctx context.Context, force bool) ([]Supplier, error) {
	key := "init"
	if force {
		key = "reseed"
	}
	v, err, _ := s.seeding.Do(key, func() (interface{}, error) {
		return s.seedOnce(ctx, force)
	})
	if err != nil {
		return nil, err
	}
	return cloneList(v.([]Supplier)), nil
}

// seedOnce runs storage access and the list swap under mu so that no
// mutator can interleave between them. The seed fetch runs unlocked.
func (s *Service) seedOnce(ctx context.Context, force bool) ([]Supplier, error) {
	if !force {
		local, ok, err := s.loadStored(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			s.logger.Info("suppliers loaded from storage", slog.Int("count", len(local)))
			return local, nil
		}
	}

	list, source := s.seeder.Load(ctx)

	s.mu.Lock()
	if force {
		if err := s.repo.Clear(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	if err := s.repo.SaveSeeded(ctx, list); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := s.swapLocked(list)
	s.mu.Unlock()

	s.publish(snapshot)
	if s.observer != nil {
		s.observer.ObserveSeed(source)
	}
	s.logger.Info("suppliers seeded", slog.String("source", source), slog.Int("count", len(list)))
	return list, nil
}

// loadStored adopts the stored list when storage holds data or was seeded
// before. ok is false when a seed is still needed.
func (s *Service) loadStored(ctx context.Context) ([]Supplier, bool, error) {
	s.mu.Lock()
	local, err := s.repo.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, false, err
	}
	seeded := len(local) > 0
	if !seeded {
		if seeded, err = s.repo.Seeded(ctx); err != nil {
			s.mu.Unlock()
			return nil, false, err
		}
	}
	if !seeded {
		s.mu.Unlock()
		return nil, false, nil
	}
	snapshot := s.swapLocked(local)
	s.mu.Unlock()

	s.publish(snapshot)
	return local, true, nil
}

func (s *Service) swapLocked(list []Supplier) []Supplier {
	s.list = cloneList(list)
	if top := maxID(list); top > s.highWater {
		s.highWater = top
	}
	return cloneList(list)
}

func (s *Service) nextIDLocked() int64 {
	next := maxID(s.list)
	if s.highWater > next {
		next = s.highWater
	}
	return next + 1
}

func (s *Service) indexLocked(id int64) int {
	for i, sup := range s.list {
		if sup.ID == id {
			return i
		}
	}
	return -1
}

func maxID(list []Supplier) int64 {
	var top int64
	for _, sup := range list {
		if sup.ID > top {
			top = sup.ID
		}
	}
	return top
}
