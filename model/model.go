// Package model layers a navigable object model over the session's local
// cache: entities and devices with explicit lookups, registry-backed
// attribute access, and convenience service invocations. All reads come
// from the cache; all writes go through the session and come back via the
// usual refresh cycle.
package model

import (
	"fmt"
	"sort"

	"github.com/jamalex/home-assistant-customizations/errors"
	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/hass"
	"github.com/jamalex/home-assistant-customizations/store"
)

// Session is the slice of the client the object model needs. *hass.Client
// satisfies it.
type Session interface {
	Store() *store.Store
	CallService(domain, service string, serviceData map[string]any) (int64, error)
	UpdateRegistry(kind frame.RegistryKind, fields map[string]any, callback hass.Callback) (int64, error)
}

// Model is the entry point for entity and device navigation
type Model struct {
	session Session
}

// New creates an object model over a session
func New(session Session) *Model {
	return &Model{session: session}
}

// Entity returns a handle for the given entity id. The id must have the
// domain.object_id shape; existence is checked lazily on access.
func (m *Model) Entity(entityID string) (*Entity, error) {
	domain, objectID, ok := frame.ParseEntityID(entityID)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("malformed entity id %q", entityID),
			"Model", "Entity", "parse entity id")
	}
	return &Entity{session: m.session, id: entityID, domain: domain, objectID: objectID}, nil
}

// Device returns a handle for the given device id
func (m *Model) Device(deviceID string) *Device {
	return &Device{session: m.session, id: deviceID}
}

// Entities returns handles for every entity in the registry, sorted by
// entity id. Disabled entities are skipped unless includeDisabled is set.
func (m *Model) Entities(includeDisabled bool) []*Entity {
	return m.entitiesWhere(includeDisabled, nil)
}

// EntitiesByDomain returns the enabled entities of one domain, sorted by
// entity id
func (m *Model) EntitiesByDomain(domain string) []*Entity {
	return m.entitiesWhere(false, func(entityID string, _ store.Record) bool {
		d, _, ok := frame.ParseEntityID(entityID)
		return ok && d == domain
	})
}

// Domains returns the sorted set of domains that have at least one enabled
// entity
func (m *Model) Domains() []string {
	return domainsWhere(m.session.Store(), nil)
}

func (m *Model) entitiesWhere(includeDisabled bool, keep func(string, store.Record) bool) []*Entity {
	snapshot := m.session.Store().RegistrySnapshot(frame.RegistryEntity)

	var out []*Entity
	for _, entityID := range sortedKeys(snapshot) {
		rec := snapshot[entityID]
		if !includeDisabled && recordString(rec, "disabled_by") != "" {
			continue
		}
		if keep != nil && !keep(entityID, rec) {
			continue
		}
		e, ok := entityFromRegistry(m.session, entityID)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

func entityFromRegistry(session Session, entityID string) (*Entity, bool) {
	domain, objectID, ok := frame.ParseEntityID(entityID)
	if !ok {
		return nil, false
	}
	return &Entity{session: session, id: entityID, domain: domain, objectID: objectID}, true
}

// domainsWhere collects the domains of enabled entities passing the filter
func domainsWhere(st *store.Store, keep func(string, store.Record) bool) []string {
	snapshot := st.RegistrySnapshot(frame.RegistryEntity)

	seen := make(map[string]struct{})
	for entityID, rec := range snapshot {
		if recordString(rec, "disabled_by") != "" {
			continue
		}
		if keep != nil && !keep(entityID, rec) {
			continue
		}
		domain, _, ok := frame.ParseEntityID(entityID)
		if !ok {
			continue
		}
		seen[domain] = struct{}{}
	}

	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// sortedKeys returns a snapshot's ids in stable order
func sortedKeys(snapshot map[string]store.Record) []string {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// recordString reads a string field from a cache record, tolerating both
// absent keys and explicit nulls
func recordString(rec store.Record, key string) string {
	if rec == nil {
		return ""
	}
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}
