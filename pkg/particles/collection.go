package particles

import (
	"image"
	"slices"

	"github.com/zurustar/spritekit/pkg/surface"
)

// Collection is an ordered set of particles.
type Collection struct {
	items []Particle
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends particles; nil values are ignored.
func (c *Collection) Add(ps ...Particle) {
	for _, p := range ps {
		if p != nil {
			c.items = append(c.items, p)
		}
	}
}

// AddCollection appends every particle of other.
func (c *Collection) AddCollection(other *Collection) {
	if other == nil {
		return
	}
	c.items = append(c.items, other.items...)
}

// Len returns the number of particles.
func (c *Collection) Len() int { return len(c.items) }

// Particles returns a copy of the particles in update order.
func (c *Collection) Particles() []Particle { return slices.Clone(c.items) }

// Clear removes every particle.
func (c *Collection) Clear() { c.items = nil }

// Update advances every particle and drops the dead ones.
// It reports whether any particle is left.
func (c *Collection) Update() bool {
	c.items = slices.DeleteFunc(c.items, func(p Particle) bool {
		return !p.Update()
	})
	return len(c.items) > 0
}

// Render draws every particle in order.
func (c *Collection) Render(dst surface.Surface) {
	for _, p := range c.items {
		p.Render(dst)
	}
}

// Bounded is implemented by particles that know the area they draw.
type Bounded interface {
	Bounds() image.Rectangle
}

// Bounds returns the union of the areas the particles draw. Particles that
// do not implement Bounded count as the pixel at their position.
func (c *Collection) Bounds() image.Rectangle {
	var r image.Rectangle
	for _, p := range c.items {
		if b, ok := p.(Bounded); ok {
			r = r.Union(b.Bounds())
			continue
		}
		pt := p.State().Point()
		r = r.Union(image.Rectangle{Min: pt, Max: pt.Add(image.Pt(1, 1))})
	}
	return r
}
