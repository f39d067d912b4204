package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

func typeTestTaxonomy() *taxonomy.Taxonomy {
	return &taxonomy.Taxonomy{
		Events: []taxonomy.Event{
			{Name: "purchase", Properties: []taxonomy.Property{
				{Name: "price", Type: taxonomy.TypeNumber},
				{Name: "item_name", Type: taxonomy.TypeString},
				{Name: "purchased_at", Type: taxonomy.TypeTime},
			}},
		},
	}
}

func TestTypeRegistryDeclaredTypes(t *testing.T) {
	reg := NewTypeRegistry(typeTestTaxonomy())

	typ, ok := reg.DeclaredType("price")
	require.True(t, ok)
	assert.Equal(t, taxonomy.TypeNumber, typ)

	_, ok = reg.DeclaredType("unknown")
	assert.False(t, ok)
}

func TestTypeRegistryConform(t *testing.T) {
	reg := NewTypeRegistry(typeTestTaxonomy())

	assert.Equal(t, 9.99, reg.Conform("price", 9.99))
	assert.Equal(t, int64(10), reg.Conform("price", int64(10)))

	// A string against a declared number violates type stability.
	assert.Nil(t, reg.Conform("price", "expensive"))

	// Time properties accept formatted strings.
	assert.Equal(t, "2025-07-01 09:00:00.000", reg.Conform("purchased_at", "2025-07-01 09:00:00.000"))
	assert.Nil(t, reg.Conform("purchased_at", int64(5)))
}

func TestTypeRegistryLazyRegistration(t *testing.T) {
	reg := NewTypeRegistry(typeTestTaxonomy())

	// First sighting of an undeclared name pins its type.
	assert.Equal(t, "organic", reg.Conform("channel", "organic"))
	assert.Nil(t, reg.Conform("channel", int64(1)))
	assert.Equal(t, "google_ads", reg.Conform("channel", "google_ads"))
}

func TestTypeRegistryNilPassthrough(t *testing.T) {
	reg := NewTypeRegistry(nil)
	assert.Nil(t, reg.Conform("anything", nil))
}
