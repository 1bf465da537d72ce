package model

import (
	"fmt"

	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/hass"
	"github.com/jamalex/home-assistant-customizations/store"
)

// Device is a handle on one device registry record
type Device struct {
	session Session
	id      string
}

// ID returns the device id. Empty for an entity with no device
// association.
func (d *Device) ID() string { return d.id }

// Registry returns the device's registry record from the cache
func (d *Device) Registry() (store.Record, bool) {
	if d.id == "" {
		return nil, false
	}
	return d.session.Store().Registry(frame.RegistryDevice, d.id)
}

// Name returns the user-assigned name when set, falling back to the
// integration-supplied one
func (d *Device) Name() string {
	reg, ok := d.Registry()
	if !ok {
		return ""
	}
	if byUser := recordString(reg, "name_by_user"); byUser != "" {
		return byUser
	}
	return recordString(reg, "name")
}

// UpdateRegistry sends a registry update for this device
func (d *Device) UpdateRegistry(fields map[string]any, callback hass.Callback) error {
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["device_id"] = d.id

	_, err := d.session.UpdateRegistry(frame.RegistryDevice, merged, callback)
	return err
}

// SetName sets the user-assigned device name
func (d *Device) SetName(name string) error {
	return d.UpdateRegistry(map[string]any{"name_by_user": name}, nil)
}

// Entities returns handles for the entities associated with this device,
// sorted by entity id. Disabled entities are skipped unless
// includeDisabled is set.
func (d *Device) Entities(includeDisabled bool) []*Entity {
	m := &Model{session: d.session}
	return m.entitiesWhere(includeDisabled, func(_ string, rec store.Record) bool {
		return recordString(rec, "device_id") == d.id
	})
}

// Domains returns the sorted domains of the device's enabled entities
func (d *Device) Domains() []string {
	return domainsWhere(d.session.Store(), func(_ string, rec store.Record) bool {
		return recordString(rec, "device_id") == d.id
	})
}

// String renders the device as "device_id (name)"
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s)", d.id, d.Name())
}
