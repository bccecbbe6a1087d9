package metrics

import (
	"sync"

	"github.com/spboyer/splitlab/internal/models"
)

// Store is the shared mutable per-variant state of an experiment. It is the
// one piece of the engine that concurrent subjects contend on, so
// implementations must apply every mutation atomically: an Update callback
// runs under the store's lock with exclusive access to the record, and the
// derived rates it recomputes see the post-increment counter values.
//
// The abstraction exists so a single-process map, an atomic counter service,
// or a distributed store can back the same engine. Eventual consistency
// between processes is tolerated for periodic significance checks, but a
// single Snapshot must always be internally consistent.
type Store interface {
	// Update mutates the record for variant under the store lock, creating a
	// zeroed record on first access. It never fails with "not found".
	Update(variant string, fn func(*models.VariantMetrics))

	// Get returns a copy of the record for variant (zero value if unseen).
	Get(variant string) models.VariantMetrics

	// Variants returns the variant labels in first-seen order.
	Variants() []string

	// Snapshot returns a consistent copy of every record, taken at a single
	// point in time.
	Snapshot() map[string]models.VariantMetrics
}

// MemoryStore is the in-process Store used by default.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.VariantMetrics
	order   []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.VariantMetrics),
	}
}

func (s *MemoryStore) record(variant string) *models.VariantMetrics {
	rec, ok := s.records[variant]
	if !ok {
		rec = &models.VariantMetrics{}
		s.records[variant] = rec
		s.order = append(s.order, variant)
	}
	return rec
}

// Update implements Store.
func (s *MemoryStore) Update(variant string, fn func(*models.VariantMetrics)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.record(variant))
}

// Get implements Store.
func (s *MemoryStore) Get(variant string) models.VariantMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[variant]; ok {
		return rec.Clone()
	}
	return models.VariantMetrics{}
}

// Variants implements Store.
func (s *MemoryStore) Variants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot() map[string]models.VariantMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.VariantMetrics, len(s.records))
	for v, rec := range s.records {
		out[v] = rec.Clone()
	}
	return out
}
