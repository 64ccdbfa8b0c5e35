// Package catalog owns the product list, its id counter and search mode, and
// writes the whole state through a kv.Store after every change.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ProductDesk/internal/kv"
	"ProductDesk/internal/product"
)

var (
	ErrNotFound       = errors.New("product not found")
	ErrBadSearchMode  = errors.New("unknown search mode")
	ErrPersist        = errors.New("catalog state not persisted")
	ErrStateCorrupted = errors.New("stored catalog state is corrupt")
)

// MaxAddCount is the most copies a single Add request may ask for.
const MaxAddCount = 1000

type SearchMode string

const (
	ByTitle    SearchMode = "title"
	ByCategory SearchMode = "category"
)

func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(s))) {
	case ByTitle:
		return ByTitle, nil
	case ByCategory:
		return ByCategory, nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadSearchMode, s)
}

type StoreDeps struct {
	KV      kv.Store
	Log     *zap.Logger
	Metrics *Metrics
}

// Store is safe for concurrent use. Mutations persist before they return; a
// persistence failure is logged and reported as ErrPersist, but the in-memory
// change is kept.
type Store struct {
	mu      sync.RWMutex
	kv      kv.Store
	log     *zap.Logger
	metrics *Metrics

	records    []product.Product
	lastUsedID int64
	mode       SearchMode
}

func NewStore(deps StoreDeps) *Store {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: deps.KV, log: log, metrics: deps.Metrics}
	s.reset()
	return s
}

// Open creates a store and loads whatever state the backend holds. Load
// failures leave the store empty.
func Open(ctx context.Context, deps StoreDeps) *Store {
	s := NewStore(deps)
	_ = s.Load(ctx)
	return s
}

func (s *Store) reset() {
	s.records = []product.Product{}
	s.lastUsedID = 0
	s.mode = ByTitle
}

// Load replaces the in-memory state with the persisted one. Corrupt data is
// treated like a first run: the state is reset and the bad keys are removed.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := readState(ctx, s.kv)
	if err != nil {
		s.reset()
		s.metrics.setProducts(0)

		if errors.Is(err, ErrStateCorrupted) {
			s.log.Warn("stored catalog state is corrupt, starting empty", zap.Error(err))
			s.purge(ctx)
			return err
		}
		s.log.Error("load catalog state failed, starting empty", zap.Error(err))
		return err
	}

	if st.unknownMode != "" {
		s.log.Warn("unknown stored search mode, using title", zap.String("mode", st.unknownMode))
	}

	s.records = st.Records
	s.lastUsedID = st.LastUsedID
	s.mode = st.SearchMode
	s.metrics.setProducts(len(s.records))

	s.log.Info("catalog loaded",
		zap.Int("products", len(s.records)),
		zap.Int64("last_used_id", s.lastUsedID),
		zap.String("search_mode", string(s.mode)),
	)
	return nil
}

func (s *Store) purge(ctx context.Context) {
	for _, k := range stateKeys {
		if err := s.kv.Remove(ctx, k); err != nil {
			s.log.Warn("remove corrupt key failed", zap.String("key", k), zap.Error(err))
		}
	}
}

func (s *Store) save(ctx context.Context) error {
	err := writeState(ctx, s.kv, State{
		Records:    s.records,
		LastUsedID: s.lastUsedID,
		SearchMode: s.mode,
	})
	if err != nil {
		s.log.Error("save catalog state failed", zap.Error(err))
		s.metrics.persistFailed()
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// NextID hands out the next id. The counter is persisted on its own, so an
// id is burned even if the product it was meant for never gets saved.
func (s *Store) NextID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID(ctx)
}

func (s *Store) nextID(ctx context.Context) (int64, error) {
	s.lastUsedID++
	return s.lastUsedID, s.save(ctx)
}

// Add appends count copies of tmpl, each with a fresh id, and returns the new
// products. count <= 0 adds nothing.
func (s *Store) Add(ctx context.Context, tmpl product.Product, count int) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.op("add")

	var errs []error
	created := make([]product.Product, 0, max(count, 0))
	for range max(count, 0) {
		id, err := s.nextID(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		p := tmpl
		p.ID = id
		s.records = append(s.records, p)
		created = append(created, p)
	}

	if err := s.save(ctx); err != nil {
		errs = append(errs, err)
	}
	s.metrics.setProducts(len(s.records))

	if len(errs) > 0 {
		return created, errs[len(errs)-1]
	}
	return created, nil
}

// Delete removes every product with id and returns the remaining list.
// Deleting an absent id only re-persists the unchanged state.
func (s *Store) Delete(ctx context.Context, id int64) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.op("delete")

	s.records = s.without(id)
	err := s.save(ctx)
	s.metrics.setProducts(len(s.records))

	return s.snapshot(), err
}

func (s *Store) without(id int64) []product.Product {
	out := s.records[:0]
	for _, p := range s.records {
		if p.ID != id {
			out = append(out, p)
		}
	}
	// Zero the tail so dropped products don't linger in the backing array.
	clear(s.records[len(out):])
	return out
}

// Update replaces the product with id by a newly created one built from
// tmpl. The replacement gets a new id and moves to the end of the list.
func (s *Store) Update(ctx context.Context, id int64, tmpl product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.op("update")

	if _, ok := s.find(id); !ok {
		return product.Product{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}

	s.records = s.without(id)
	var errs []error
	if err := s.save(ctx); err != nil {
		errs = append(errs, err)
	}

	newID, err := s.nextID(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	p := tmpl
	p.ID = newID
	s.records = append(s.records, p)

	if err := s.save(ctx); err != nil {
		errs = append(errs, err)
	}
	s.metrics.setProducts(len(s.records))

	if len(errs) > 0 {
		return p, errs[len(errs)-1]
	}
	return p, nil
}

func (s *Store) Find(id int64) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(id)
}

func (s *Store) find(id int64) (product.Product, bool) {
	for _, p := range s.records {
		if p.ID == id {
			return p, true
		}
	}
	return product.Product{}, false
}

func (s *Store) SetSearchMode(ctx context.Context, mode SearchMode) error {
	m, err := ParseSearchMode(string(mode))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.op("set_search_mode")

	s.mode = m
	return s.save(ctx)
}

func (s *Store) SearchMode() SearchMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Search filters by case-insensitive substring on the field selected by the
// current search mode. An empty keyword returns everything. Order is kept.
func (s *Store) Search(keyword string) []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if keyword == "" {
		return s.snapshot()
	}

	term := strings.ToLower(keyword)
	out := make([]product.Product, 0, len(s.records))
	for _, p := range s.records {
		field := p.Title
		if s.mode == ByCategory {
			field = p.Category
		}
		if strings.Contains(strings.ToLower(field), term) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) List() []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) LastUsedID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsedID
}

// State returns a copy of everything the store persists.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Records: s.snapshot(), LastUsedID: s.lastUsedID, SearchMode: s.mode}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

func (s *Store) snapshot() []product.Product {
	out := make([]product.Product, len(s.records))
	copy(out, s.records)
	return out
}
