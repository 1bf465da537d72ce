package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds_StableOrder(t *testing.T) {
	first := Kinds()
	second := Kinds()
	assert.Equal(t, first, second)
	assert.Len(t, first, 5)
	assert.Equal(t, RegistryEntity, first[0])
}

func TestIDField(t *testing.T) {
	tests := []struct {
		kind  RegistryKind
		field string
	}{
		{kind: RegistryEntity, field: "entity_id"},
		{kind: RegistryDevice, field: "id"},
		{kind: RegistryArea, field: "area_id"},
		{kind: RegistryLabel, field: "id"},
		{kind: RegistryFloor, field: "floor_id"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			field, err := tt.kind.IDField()
			require.NoError(t, err)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestIDField_Unknown(t *testing.T) {
	_, err := RegistryKind("bogus_registry").IDField()
	require.Error(t, err)
}

func TestRequestTypes(t *testing.T) {
	assert.Equal(t, "config/entity_registry/list", RegistryEntity.ListType())
	assert.Equal(t, "config/device_registry/update", RegistryDevice.UpdateType())
	assert.Equal(t, "area_registry_updated", RegistryArea.UpdatedEventType())
}

func TestKindForEvent(t *testing.T) {
	kind, ok := KindForEvent("entity_registry_updated")
	require.True(t, ok)
	assert.Equal(t, RegistryEntity, kind)

	_, ok = KindForEvent("state_changed")
	assert.False(t, ok)

	// Suffix matches but the registry is not configured
	_, ok = KindForEvent("bogus_registry_updated")
	assert.False(t, ok)
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind("floor_registry"))
	assert.False(t, IsKind("floor"))
}
