// Package store holds the local read-through cache of hub state: one map
// per configuration registry, the live entity states, and the service
// catalog. The store is passive - it is mutated only by the session's event
// router and by bulk-refresh responses, and read by everyone else.
//
// Registry and state snapshots are replaced wholesale, never merged, so
// concurrent readers observe either the old or the new mapping but never a
// partially built one. Returned records are shared, not copied; callers
// must treat them as read-only.
package store

import (
	"sort"
	"sync"

	"github.com/jamalex/home-assistant-customizations/errors"
	"github.com/jamalex/home-assistant-customizations/frame"
)

// Record is one configuration or state object as received from the hub
type Record map[string]any

// ServiceDef describes one advertised service (read-only schema used for
// documentation and validation, never for code synthesis)
type ServiceDef map[string]any

// Store is the thread-safe cache of registries, states, and services
type Store struct {
	mu         sync.RWMutex
	registries map[frame.RegistryKind]map[string]Record
	states     map[string]Record
	services   map[string]map[string]ServiceDef

	stats   *Statistics
	metrics *storeMetrics
}

// New creates an empty store with one mapping per configured registry kind
func New(opts ...Option) (*Store, error) {
	options := &storeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var metrics *storeMetrics
	if options.metricsReg != nil {
		var err error
		metrics, err = newStoreMetrics(options.metricsReg)
		if err != nil {
			return nil, errors.WrapTransient(err, "store", "New", "metrics registration")
		}
	}

	registries := make(map[frame.RegistryKind]map[string]Record, len(frame.Kinds()))
	for _, kind := range frame.Kinds() {
		registries[kind] = make(map[string]Record)
	}

	return &Store{
		registries: registries,
		states:     make(map[string]Record),
		services:   make(map[string]map[string]ServiceDef),
		stats:      NewStatistics(),
		metrics:    metrics,
	}, nil
}

// Stats returns the store's hit/miss statistics
func (s *Store) Stats() *Statistics {
	return s.stats
}

// ReplaceRegistry swaps the mapping for a registry kind with a freshly
// built one keyed by the kind's canonical id field. Records lacking the id
// field are skipped.
func (s *Store) ReplaceRegistry(kind frame.RegistryKind, records []Record) error {
	idField, err := kind.IDField()
	if err != nil {
		return err
	}

	fresh := make(map[string]Record, len(records))
	for _, rec := range records {
		id, ok := rec[idField].(string)
		if !ok || id == "" {
			continue
		}
		fresh[id] = rec
	}

	s.mu.Lock()
	s.registries[kind] = fresh
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.registryEntries.WithLabelValues(string(kind)).Set(float64(len(fresh)))
		s.metrics.registryRefreshes.WithLabelValues(string(kind)).Inc()
	}
	return nil
}

// Registry looks up one record by id in the given registry kind
func (s *Store) Registry(kind frame.RegistryKind, id string) (Record, bool) {
	s.mu.RLock()
	rec, ok := s.registries[kind][id]
	s.mu.RUnlock()

	s.stats.Track(ok)
	return rec, ok
}

// RegistryIDs returns the sorted ids of all records in a registry kind
func (s *Store) RegistryIDs(kind frame.RegistryKind) []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.registries[kind]))
	for id := range s.registries[kind] {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// RegistrySize returns the number of records in a registry kind
func (s *Store) RegistrySize(kind frame.RegistryKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registries[kind])
}

// RegistrySnapshot returns the current mapping for a registry kind. The
// returned map is the live snapshot and must not be mutated; it will never
// change after being returned since refreshes swap in a new map.
func (s *Store) RegistrySnapshot(kind frame.RegistryKind) map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registries[kind]
}

// ReplaceStates swaps the whole state cache with a fresh mapping built from
// a bulk state snapshot. Records lacking an entity_id are skipped.
func (s *Store) ReplaceStates(records []Record) {
	fresh := make(map[string]Record, len(records))
	for _, rec := range records {
		entityID, ok := rec["entity_id"].(string)
		if !ok || entityID == "" {
			continue
		}
		fresh[entityID] = rec
	}

	s.mu.Lock()
	s.states = fresh
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.stateEntries.Set(float64(len(fresh)))
	}
}

// SetState overwrites the cached state of exactly one entity
func (s *Store) SetState(entityID string, state Record) {
	if entityID == "" {
		return
	}

	s.mu.Lock()
	s.states[entityID] = state
	size := len(s.states)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.stateEntries.Set(float64(size))
		s.metrics.stateUpdates.Inc()
	}
}

// State looks up the latest cached state record for an entity
func (s *Store) State(entityID string) (Record, bool) {
	s.mu.RLock()
	rec, ok := s.states[entityID]
	s.mu.RUnlock()

	s.stats.Track(ok)
	return rec, ok
}

// EntityIDs returns the sorted entity ids present in the state cache
func (s *Store) EntityIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// StateCount returns the number of cached entity states
func (s *Store) StateCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// ReplaceServices swaps the whole service catalog, keyed by domain
func (s *Store) ReplaceServices(catalog map[string]map[string]ServiceDef) {
	if catalog == nil {
		catalog = make(map[string]map[string]ServiceDef)
	}

	s.mu.Lock()
	s.services = catalog
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.serviceDomains.Set(float64(len(catalog)))
	}
}

// Service looks up the read-only definition of one service in a domain
func (s *Store) Service(domain, service string) (ServiceDef, bool) {
	s.mu.RLock()
	def, ok := s.services[domain][service]
	s.mu.RUnlock()

	s.stats.Track(ok)
	return def, ok
}

// ServiceNames returns the sorted service names advertised for a domain
func (s *Store) ServiceNames(domain string) []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.services[domain]))
	for name := range s.services[domain] {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}

// ServiceDomains returns the sorted domains present in the service catalog
func (s *Store) ServiceDomains() []string {
	s.mu.RLock()
	domains := make([]string, 0, len(s.services))
	for domain := range s.services {
		domains = append(domains, domain)
	}
	s.mu.RUnlock()

	sort.Strings(domains)
	return domains
}

// Clear empties every cache. Used when a session is torn down for good.
func (s *Store) Clear() {
	s.mu.Lock()
	for _, kind := range frame.Kinds() {
		s.registries[kind] = make(map[string]Record)
	}
	s.states = make(map[string]Record)
	s.services = make(map[string]map[string]ServiceDef)
	s.mu.Unlock()

	if s.metrics != nil {
		for _, kind := range frame.Kinds() {
			s.metrics.registryEntries.WithLabelValues(string(kind)).Set(0)
		}
		s.metrics.stateEntries.Set(0)
		s.metrics.serviceDomains.Set(0)
	}
}
