package frame

import (
	"fmt"
	"strings"

	"github.com/jamalex/home-assistant-customizations/errors"
)

// RegistryKind names a server-maintained configuration registry. The hub
// uses the kind both in config/<kind>/list request types and in
// <kind>_updated event types.
type RegistryKind string

// Known registry kinds
const (
	RegistryEntity RegistryKind = "entity_registry"
	RegistryDevice RegistryKind = "device_registry"
	RegistryArea   RegistryKind = "area_registry"
	RegistryLabel  RegistryKind = "label_registry"
	RegistryFloor  RegistryKind = "floor_registry"
)

// registryIDFields maps each registry kind to the id field its records are
// keyed by. Adding a registry kind means adding a row here, nothing more.
var registryIDFields = map[RegistryKind]string{
	RegistryEntity: "entity_id",
	RegistryDevice: "id",
	RegistryArea:   "area_id",
	RegistryLabel:  "id",
	RegistryFloor:  "floor_id",
}

// registryKindOrder fixes the iteration order of Kinds so the bootstrap
// sequence is deterministic.
var registryKindOrder = []RegistryKind{
	RegistryEntity,
	RegistryDevice,
	RegistryArea,
	RegistryLabel,
	RegistryFloor,
}

// Kinds returns all configured registry kinds in a stable order
func Kinds() []RegistryKind {
	kinds := make([]RegistryKind, len(registryKindOrder))
	copy(kinds, registryKindOrder)
	return kinds
}

// IsKind reports whether the name is a configured registry kind
func IsKind(name string) bool {
	_, ok := registryIDFields[RegistryKind(name)]
	return ok
}

// IDField returns the canonical id field for the registry kind
func (k RegistryKind) IDField() (string, error) {
	field, ok := registryIDFields[k]
	if !ok {
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrUnknownRegistry, k),
			"frame", "IDField", "look up registry kind")
	}
	return field, nil
}

// String returns the registry name as used on the wire
func (k RegistryKind) String() string {
	return string(k)
}

// ListType returns the request type for a full registry listing
func (k RegistryKind) ListType() string {
	return fmt.Sprintf("config/%s/list", k)
}

// UpdateType returns the request type for a single-record update
func (k RegistryKind) UpdateType() string {
	return fmt.Sprintf("config/%s/update", k)
}

// UpdatedEventType returns the push-event type the hub emits when the
// registry changes
func (k RegistryKind) UpdatedEventType() string {
	return string(k) + "_updated"
}

// KindForEvent maps a push-event type like "entity_registry_updated" back
// to its registry kind. Returns false for event types that are not registry
// change notifications.
func KindForEvent(eventType string) (RegistryKind, bool) {
	name, found := strings.CutSuffix(eventType, "_updated")
	if !found {
		return "", false
	}
	kind := RegistryKind(name)
	if _, ok := registryIDFields[kind]; !ok {
		return "", false
	}
	return kind, true
}
