package model

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/hass"
	"github.com/jamalex/home-assistant-customizations/store"
)

// Entity is a handle on one entity: registry and state reads come from the
// cache, mutations go through the session. Handles are cheap and carry no
// cached data themselves.
type Entity struct {
	session  Session
	id       string
	domain   string
	objectID string
}

// ID returns the full entity id (domain.object_id)
func (e *Entity) ID() string { return e.id }

// Domain returns the domain part of the entity id
func (e *Entity) Domain() string { return e.domain }

// ObjectID returns the object id part of the entity id
func (e *Entity) ObjectID() string { return e.objectID }

// Registry returns the entity's registry record from the cache
func (e *Entity) Registry() (store.Record, bool) {
	return e.session.Store().Registry(frame.RegistryEntity, e.id)
}

// State returns the entity's last known state from the cache
func (e *Entity) State() (store.Record, bool) {
	return e.session.Store().State(e.id)
}

// Name returns the friendly name from the entity's state attributes, or
// the empty string when no state is cached
func (e *Entity) Name() string {
	state, ok := e.State()
	if !ok {
		return ""
	}
	attrs, _ := state["attributes"].(map[string]any)
	if v, ok := attrs["friendly_name"].(string); ok {
		return v
	}
	return ""
}

// Names collects every name the hub knows the entity by, keyed by source
func (e *Entity) Names() map[string]string {
	reg, _ := e.Registry()
	return map[string]string{
		"entity_id":              e.id,
		"registry_name":          recordString(reg, "name"),
		"registry_original_name": recordString(reg, "original_name"),
		"state_friendly_name":    e.Name(),
		"device_name":            e.Device().Name(),
	}
}

// SlugifiedName returns the friendly name as an underscore-separated slug,
// with possessives stripped
func (e *Entity) SlugifiedName() string {
	name := strings.ReplaceAll(e.Name(), "'s", "")
	name = strings.ReplaceAll(name, "'", "")
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}

// Enabled reports whether the entity is enabled in the registry. An entity
// with no registry record counts as enabled.
func (e *Entity) Enabled() bool {
	reg, ok := e.Registry()
	if !ok {
		return true
	}
	return recordString(reg, "disabled_by") == ""
}

// UpdateRegistry sends a registry update for this entity. The fields map
// carries only the changes; the entity id is filled in here.
func (e *Entity) UpdateRegistry(fields map[string]any, callback hass.Callback) error {
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["entity_id"] = e.id

	_, err := e.session.UpdateRegistry(frame.RegistryEntity, merged, callback)
	return err
}

// SetName updates the entity's registry name
func (e *Entity) SetName(name string) error {
	return e.UpdateRegistry(map[string]any{"name": name}, nil)
}

// Rename changes the entity id. A bare object id is qualified with the
// entity's current domain. The handle tracks the new id immediately; the
// cache catches up when the registry refresh lands.
func (e *Entity) Rename(newEntityID string) error {
	if !strings.Contains(newEntityID, ".") {
		newEntityID = frame.JoinEntityID(e.domain, newEntityID)
	}
	if err := e.UpdateRegistry(map[string]any{"new_entity_id": newEntityID}, nil); err != nil {
		return err
	}

	domain, objectID, ok := frame.ParseEntityID(newEntityID)
	if ok {
		e.id = newEntityID
		e.domain = domain
		e.objectID = objectID
	}
	return nil
}

// Enable clears the entity's disabled marker
func (e *Entity) Enable() error {
	return e.UpdateRegistry(map[string]any{"disabled_by": nil}, nil)
}

// Disable marks the entity disabled by the user
func (e *Entity) Disable() error {
	return e.UpdateRegistry(map[string]any{"disabled_by": "user"}, nil)
}

// CallService invokes a service in the entity's domain, targeting this
// entity. Extra service data fields may be supplied; the entity_id is
// always set.
func (e *Entity) CallService(service string, serviceData map[string]any) error {
	merged := make(map[string]any, len(serviceData)+1)
	for k, v := range serviceData {
		merged[k] = v
	}
	merged["entity_id"] = e.id

	_, err := e.session.CallService(e.domain, service, merged)
	return err
}

// TurnOn invokes the domain's turn_on service on this entity
func (e *Entity) TurnOn(serviceData map[string]any) error {
	return e.CallService("turn_on", serviceData)
}

// TurnOff invokes the domain's turn_off service on this entity
func (e *Entity) TurnOff(serviceData map[string]any) error {
	return e.CallService("turn_off", serviceData)
}

// OpenCover invokes the domain's open_cover service on this entity
func (e *Entity) OpenCover(serviceData map[string]any) error {
	return e.CallService("open_cover", serviceData)
}

// CloseCover invokes the domain's close_cover service on this entity
func (e *Entity) CloseCover(serviceData map[string]any) error {
	return e.CallService("close_cover", serviceData)
}

// Device returns a handle on the device the entity belongs to. The handle
// has an empty id when the entity has no device association.
func (e *Entity) Device() *Device {
	reg, _ := e.Registry()
	return &Device{session: e.session, id: recordString(reg, "device_id")}
}

// ServiceNames returns the sorted service names available in the entity's
// domain, per the cached service catalog
func (e *Entity) ServiceNames() []string {
	return e.session.Store().ServiceNames(e.domain)
}

// ServiceDescription returns the description of one service in the
// entity's domain
func (e *Entity) ServiceDescription(service string) (string, bool) {
	def, ok := e.session.Store().Service(e.domain, service)
	if !ok {
		return "", false
	}
	desc, _ := def["description"].(string)
	return desc, true
}

// String renders the entity as "entity_id (name)" or "entity_id
// (disabled)"
func (e *Entity) String() string {
	parenthetical := e.Name()
	if !e.Enabled() {
		parenthetical = "disabled"
	}
	return fmt.Sprintf("%s (%s)", e.id, parenthetical)
}
