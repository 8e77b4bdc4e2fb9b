package particles

import (
	"fmt"
	"image"
	"log/slog"
	"slices"

	"github.com/zurustar/spritekit/pkg/logger"
	"github.com/zurustar/spritekit/pkg/surface"
)

// ErrInvalidArgument is returned when a required argument is nil.
var ErrInvalidArgument = surface.ErrInvalidArgument

// System ties particles to the emitters that feed them and the manipulators
// that move them.
type System struct {
	particles    *Collection
	emitters     []*Emitter
	manipulators []Manipulator
	log          *slog.Logger
}

// NewSystem returns an empty particle system.
func NewSystem() *System {
	return &System{
		particles: NewCollection(),
		log:       logger.GetLogger(),
	}
}

// SetLogger replaces the logger.
func (s *System) SetLogger(log *slog.Logger) { s.log = log }

// Particles returns the system's particle collection.
func (s *System) Particles() *Collection { return s.particles }

// Emitters returns a copy of the live emitters.
func (s *System) Emitters() []*Emitter { return slices.Clone(s.emitters) }

// AddEmitter attaches e to the system and retargets it at the system's particles.
func (s *System) AddEmitter(e *Emitter) error {
	if e == nil {
		return fmt.Errorf("add emitter: %w", ErrInvalidArgument)
	}
	e.SetTarget(s.particles)
	s.emitters = append(s.emitters, e)
	return nil
}

// NewEmitter creates an emitter at (x, y) feeding this system.
func (s *System) NewEmitter(x, y float64, seed uint64) *Emitter {
	e, _ := NewEmitter(s.particles, x, y, seed)
	s.emitters = append(s.emitters, e)
	return e
}

// AddManipulator appends m; manipulators run in the order they were added.
func (s *System) AddManipulator(m Manipulator) error {
	if m == nil {
		return fmt.Errorf("add manipulator: %w", ErrInvalidArgument)
	}
	s.manipulators = append(s.manipulators, m)
	return nil
}

// Update runs one frame: emitters spawn, manipulators push, particles move and age.
// Emitters whose life ran out are dropped.
func (s *System) Update() {
	s.emitters = slices.DeleteFunc(s.emitters, func(e *Emitter) bool {
		if e.Update() {
			return false
		}
		s.log.Debug("Emitter expired", "x", e.X, "y", e.Y)
		return true
	})

	ps := s.particles.items
	for _, m := range s.manipulators {
		m.Manipulate(ps)
	}
	s.particles.Update()
}

// Render draws the particles onto dst.
func (s *System) Render(dst surface.Surface) {
	s.particles.Render(dst)
}

// Bounds returns the area the particles draw.
func (s *System) Bounds() image.Rectangle {
	return s.particles.Bounds()
}

// Done reports whether the system has neither particles nor emitters left.
func (s *System) Done() bool {
	return len(s.emitters) == 0 && s.particles.Len() == 0
}

// Systems is a group of particle systems updated and rendered together.
type Systems []*System

// Update advances every system.
func (ss Systems) Update() {
	for _, s := range ss {
		s.Update()
	}
}

// Render draws every system in order.
func (ss Systems) Render(dst surface.Surface) {
	for _, s := range ss {
		s.Render(dst)
	}
}

// Bounds returns the union of the areas every system draws.
func (ss Systems) Bounds() image.Rectangle {
	var r image.Rectangle
	for _, s := range ss {
		r = r.Union(s.Bounds())
	}
	return r
}
