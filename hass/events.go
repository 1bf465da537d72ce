package hass

import (
	"bytes"
	"encoding/json"

	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/store"
)

// Periodic statistics events the hub emits constantly; they carry nothing
// the cache needs and are ignored by name.
var ignoredEventTypes = map[string]struct{}{
	"recorder_5min_statistics_generated":   {},
	"recorder_hourly_statistics_generated": {},
}

var jsonNull = []byte("null")

// routeEvent interprets one push event. Registry-change notifications
// trigger a full refresh of that registry - and, for the entity registry,
// a full state resync too, since entity identity changes invalidate cached
// state keys. State changes overwrite exactly one cache entry. Everything
// unrecognized is noise.
func (c *Client) routeEvent(evt *frame.Event) {
	if kind, ok := frame.KindForEvent(evt.EventType); ok {
		c.logger.Printf("%s changed -> refreshing full list.", kind)
		if _, err := c.RefreshRegistry(kind); err != nil {
			c.logger.Errorf("Event: refresh %s failed: %v", kind, err)
		}
		if kind == frame.RegistryEntity {
			if _, err := c.RefreshStates(); err != nil {
				c.logger.Errorf("Event: state resync failed: %v", err)
			}
		}
		return
	}

	switch evt.EventType {
	case frame.EventStateChanged:
		c.applyStateChange(evt)
	default:
		if _, ignored := ignoredEventTypes[evt.EventType]; ignored {
			return
		}
		c.logger.Debugf("Unhandled event: %s", evt.EventType)
	}
}

// applyStateChange overwrites the cached state of the affected entity.
// Events without an entity id are dropped; a null new_state (entity
// removed) leaves the existing cache entry untouched, matching the
// original fire-and-forget policy - the entity registry event that
// accompanies a removal resyncs the snapshot.
func (c *Client) applyStateChange(evt *frame.Event) {
	sc, err := evt.StateChange()
	if err != nil {
		c.logger.Errorf("Event: decode state change failed: %v", err)
		return
	}
	if sc.EntityID == "" {
		return
	}
	if len(sc.NewState) == 0 || bytes.Equal(sc.NewState, jsonNull) {
		return
	}

	var state store.Record
	if err := json.Unmarshal(sc.NewState, &state); err != nil {
		c.logger.Errorf("Event: decode new state failed: %v", err)
		return
	}
	c.store.SetState(sc.EntityID, state)
}
