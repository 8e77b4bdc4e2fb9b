package particles

import (
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/zurustar/spritekit/pkg/surface"
)

// SpawnFunc builds a particle from the motion chosen by an emitter.
type SpawnFunc func(m Motion, rng *rand.Rand) Particle

// Emitter spawns particles into a target collection.
//
// An emitter is itself a particle: it moves and ages like one and stops
// emitting once its life runs out. It renders nothing.
type Emitter struct {
	Motion

	// Rate is the number of particles emitted per update; fractions carry over.
	Rate float64

	LifeMin, LifeMax   int
	SpeedMin, SpeedMax float64
	// Direction range in radians; 0 points right, π/2 points down.
	DirectionMin, DirectionMax float64

	// Color is used by the default spawn function, which creates pixels.
	Color color.Color
	Spawn SpawnFunc

	emitting bool
	carry    float64
	target   *Collection
	rng      *rand.Rand
}

// NewEmitter returns an emitter at (x, y) that lives forever and emits into target.
// The seed makes the emitted particles reproducible.
func NewEmitter(target *Collection, x, y float64, seed uint64) (*Emitter, error) {
	if target == nil {
		return nil, fmt.Errorf("new emitter: nil target: %w", ErrInvalidArgument)
	}
	return &Emitter{
		Motion:       Motion{X: x, Y: y, Life: Infinite, LifeFull: Infinite},
		Rate:         1,
		LifeMin:      30,
		LifeMax:      60,
		SpeedMin:     1,
		SpeedMax:     2,
		DirectionMax: 2 * math.Pi,
		Color:        color.White,
		emitting:     true,
		target:       target,
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// SetTarget changes the collection particles are emitted into.
func (e *Emitter) SetTarget(target *Collection) {
	if target != nil {
		e.target = target
	}
}

// Target returns the collection particles are emitted into.
func (e *Emitter) Target() *Collection { return e.target }

// Emitting reports whether the emitter is spawning particles.
func (e *Emitter) Emitting() bool { return e.emitting }

// SetEmitting starts or stops emission.
func (e *Emitter) SetEmitting(v bool) { e.emitting = v }

// Emit spawns n particles immediately.
func (e *Emitter) Emit(n int) {
	for range n {
		e.target.Add(e.spawnOne())
	}
}

func (e *Emitter) spawnOne() Particle {
	speed := e.between(e.SpeedMin, e.SpeedMax)
	dir := e.between(e.DirectionMin, e.DirectionMax)
	life := e.LifeMin
	if e.LifeMax > e.LifeMin {
		life += e.rng.IntN(e.LifeMax - e.LifeMin + 1)
	}
	m := NewMotion(e.X, e.Y, speed*math.Cos(dir), speed*math.Sin(dir), life)
	if e.Spawn != nil {
		return e.Spawn(m, e.rng)
	}
	return NewPixel(m, e.Color)
}

func (e *Emitter) between(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Float64()*(hi-lo)
}

// Update emits this frame's particles, then ages the emitter.
func (e *Emitter) Update() bool {
	if e.emitting && e.Alive() {
		e.carry += e.Rate
		n := int(e.carry)
		e.carry -= float64(n)
		e.Emit(n)
	}
	return e.Motion.Update()
}

// Render does nothing; emitters are invisible.
func (e *Emitter) Render(surface.Surface) {}
