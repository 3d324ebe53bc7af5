package species

import (
	"fmt"
	"sort"

	"arborgen/internal/domain"
)

// Catalog is a read-only name index over validated templates.
type Catalog struct {
	byName map[string]Template
	order  []string
}

// NewCatalog validates templates and indexes them by name. Duplicate names
// are rejected.
func NewCatalog(templates ...Template) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Template, len(templates))}
	for i, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("species[%d]: %w", i, err)
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, domain.Invalid(fmt.Sprintf("species[%d].name", i), fmt.Sprintf("%q is duplicated", t.Name))
		}
		c.byName[t.Name] = t
		c.order = append(c.order, t.Name)
	}
	return c, nil
}

// DefaultCatalog indexes Presets.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(Presets()...)
	if err != nil {
		panic(fmt.Sprintf("species: invalid presets: %v", err))
	}
	return c
}

// Lookup returns the template called name.
func (c *Catalog) Lookup(name string) (Template, error) {
	t, ok := c.byName[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", domain.ErrSpeciesNotFound, name)
	}
	return t, nil
}

// Names returns template names in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Sorted returns template names alphabetically.
func (c *Catalog) Sorted() []string {
	names := c.Names()
	sort.Strings(names)
	return names
}

// Templates returns all templates in registration order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.order)
}
