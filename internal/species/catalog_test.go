package species

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arborgen/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 6, c.Len())
	assert.Equal(t, []string{"pine", "oak", "bush", "willow", "palm", "default"}, c.Names())
	assert.Equal(t, []string{"bush", "default", "oak", "palm", "pine", "willow"}, c.Sorted())

	oak, err := c.Lookup("oak")
	require.NoError(t, err)
	assert.Equal(t, "oak", oak.Name)

	_, err = c.Lookup("baobab")
	assert.True(t, errors.Is(err, domain.ErrSpeciesNotFound))
	assert.Equal(t, "species not found: baobab", err.Error())
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	oak, _ := Preset("oak")
	_, err := NewCatalog(oak, oak)
	require.Error(t, err)
	assert.Equal(t, `species[1].name "oak" is duplicated`, err.Error())
}

func TestNewCatalogRejectsInvalid(t *testing.T) {
	oak, _ := Preset("oak")
	oak.ScaleMin = -1
	_, err := NewCatalog(oak)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	assert.Equal(t, "species[0]: oak.scale_min must be positive", err.Error())
}

func TestCatalogTemplatesAreOrdered(t *testing.T) {
	c := DefaultCatalog()
	templates := c.Templates()
	require.Len(t, templates, c.Len())
	for i, name := range c.Names() {
		assert.Equal(t, name, templates[i].Name)
	}
}
