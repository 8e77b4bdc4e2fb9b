// Package particles provides simple particle effects: particles, emitters that
// spawn them, and manipulators that push them around.
//
// Particles are updated once per frame and rendered onto any surface. A particle
// whose life reaches zero is removed from its collection on the next update.
package particles

import (
	"image"
	"image/color"

	"github.com/zurustar/spritekit/pkg/primitives"
	"github.com/zurustar/spritekit/pkg/surface"
)

// Infinite is the life of a particle that never dies.
const Infinite = -1

// Particle is anything a Collection can update and render.
type Particle interface {
	// Update advances the particle one frame and reports whether it is still alive.
	Update() bool
	// Render draws the particle onto dst.
	Render(dst surface.Surface)
	// State returns the particle's position, velocity and life.
	State() *Motion
}

// Motion is the state shared by every particle.
type Motion struct {
	X, Y   float64
	VX, VY float64

	// Life counts down once per update; Infinite never counts down.
	Life int
	// LifeFull is the life the particle started with, used for fading.
	LifeFull int

	// Static particles do not move.
	Static bool
}

// NewMotion returns a motion at (x, y) with the given velocity and life.
func NewMotion(x, y, vx, vy float64, life int) Motion {
	return Motion{X: x, Y: y, VX: vx, VY: vy, Life: life, LifeFull: life}
}

// State returns m.
func (m *Motion) State() *Motion { return m }

// Update moves the particle by its velocity and counts its life down.
func (m *Motion) Update() bool {
	if !m.Static {
		m.X += m.VX
		m.Y += m.VY
	}
	if m.Life > 0 {
		m.Life--
	}
	return m.Alive()
}

// Alive reports whether the particle still has life left.
func (m *Motion) Alive() bool {
	return m.Life != 0
}

// Point returns the particle position truncated to integers.
func (m *Motion) Point() image.Point {
	return image.Pt(int(m.X), int(m.Y))
}

// fade returns the opacity for the remaining life, 255 for immortal particles.
func (m *Motion) fade() uint8 {
	switch {
	case m.Life == Infinite || m.LifeFull <= 0 || m.Life >= m.LifeFull:
		return 255
	case m.Life <= 0:
		return 0
	default:
		return uint8(float64(m.Life) / float64(m.LifeFull) * 255)
	}
}

// Pixel is a single-pixel particle.
type Pixel struct {
	Motion
	Color color.Color
}

// NewPixel returns a pixel particle.
func NewPixel(m Motion, c color.Color) *Pixel {
	return &Pixel{Motion: m, Color: c}
}

// Bounds returns the pixel's rectangle.
func (p *Pixel) Bounds() image.Rectangle {
	pt := p.Point()
	return image.Rectangle{Min: pt, Max: pt.Add(image.Pt(1, 1))}
}

// Render draws the pixel.
func (p *Pixel) Render(dst surface.Surface) {
	dst.Fill(p.Bounds(), p.Color)
}

// Circle is a filled circle that fades out as its life runs down.
type Circle struct {
	Motion
	Color  color.Color
	Radius int
}

// NewCircle returns a circle particle; radii below one are raised to one.
func NewCircle(m Motion, c color.Color, radius int) *Circle {
	if radius < 1 {
		radius = 1
	}
	return &Circle{Motion: m, Color: c, Radius: radius}
}

// Bounds returns the rectangle covered by the circle.
func (c *Circle) Bounds() image.Rectangle {
	p := c.Point()
	return image.Rect(p.X-c.Radius, p.Y-c.Radius, p.X+c.Radius, p.Y+c.Radius)
}

// Render draws the circle with its opacity scaled by remaining life.
func (c *Circle) Render(dst surface.Surface) {
	col := color.NRGBAModel.Convert(c.Color).(color.NRGBA)
	col.A = uint8(uint16(col.A) * uint16(c.fade()) / 255)
	if col.A == 0 {
		return
	}
	_ = primitives.Draw(dst, primitives.Circle{Center: c.Point(), Radius: c.Radius}, col, true, 0)
}

// SpriteParticle draws a surface centred on the particle position.
type SpriteParticle struct {
	Motion
	Surface surface.Surface
}

// NewSpriteParticle returns a particle that renders surf.
func NewSpriteParticle(m Motion, surf surface.Surface) *SpriteParticle {
	return &SpriteParticle{Motion: m, Surface: surf}
}

// Bounds returns the rectangle the surface covers.
func (s *SpriteParticle) Bounds() image.Rectangle {
	if s.Surface == nil {
		return image.Rectangle{}
	}
	p := s.Point()
	at := image.Pt(p.X-s.Surface.Width()/2, p.Y-s.Surface.Height()/2)
	return image.Rectangle{Min: at, Max: at.Add(image.Pt(s.Surface.Width(), s.Surface.Height()))}
}

// Render blits the surface centred on the particle.
func (s *SpriteParticle) Render(dst surface.Surface) {
	if s.Surface == nil {
		return
	}
	dst.Blit(s.Surface, s.Bounds().Min, image.Rectangle{})
}
