package particles

import "image"

// Manipulator changes particles before they are updated each frame.
type Manipulator interface {
	Manipulate(ps []Particle)
}

// ManipulatorFunc adapts a function to Manipulator.
type ManipulatorFunc func(ps []Particle)

// Manipulate calls f(ps).
func (f ManipulatorFunc) Manipulate(ps []Particle) { f(ps) }

// Gravity adds a constant acceleration to every particle.
type Gravity struct {
	X, Y float64
}

// Manipulate accelerates every non-static particle.
func (g Gravity) Manipulate(ps []Particle) {
	for _, p := range ps {
		m := p.State()
		if m.Static {
			continue
		}
		m.VX += g.X
		m.VY += g.Y
	}
}

// Friction slows every particle by a fraction of its velocity per frame.
type Friction struct {
	// Factor is between 0 (no friction) and 1 (stops at once).
	Factor float64
}

// Manipulate scales every particle's velocity by 1 - Factor.
func (f Friction) Manipulate(ps []Particle) {
	k := 1 - min(max(f.Factor, 0), 1)
	for _, p := range ps {
		m := p.State()
		m.VX *= k
		m.VY *= k
	}
}

// Boundary keeps particles inside a rectangle by bouncing them off its edges.
type Boundary struct {
	Rect image.Rectangle
}

// Manipulate clamps escaping particles to the edge and reverses their velocity.
func (b Boundary) Manipulate(ps []Particle) {
	left, top := float64(b.Rect.Min.X), float64(b.Rect.Min.Y)
	right, bottom := float64(b.Rect.Max.X-1), float64(b.Rect.Max.Y-1)
	for _, p := range ps {
		m := p.State()
		switch {
		case m.X < left:
			m.X = left
			m.VX = -m.VX
		case m.X > right:
			m.X = right
			m.VX = -m.VX
		}
		switch {
		case m.Y < top:
			m.Y = top
			m.VY = -m.VY
		case m.Y > bottom:
			m.Y = bottom
			m.VY = -m.VY
		}
	}
}
