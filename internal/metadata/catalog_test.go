package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsStable(t *testing.T) {
	first := DefaultCatalog()
	second := DefaultCatalog()
	assert.Equal(t, first, second)
}

func TestDefaultCatalogCopiesAreIndependent(t *testing.T) {
	mutated := DefaultCatalog()
	require.NotEmpty(t, mutated.Products)
	mutated.Products[0].Label = "changed"

	fresh := DefaultCatalog()
	assert.NotEqual(t, "changed", fresh.Products[0].Label)
}

func TestCatalogListsNonEmpty(t *testing.T) {
	c := DefaultCatalog()
	assert.NotEmpty(t, c.Products)
	assert.NotEmpty(t, c.UOMs)
	assert.NotEmpty(t, c.ItemTypes)
	assert.NotEmpty(t, c.Vendors)
}
