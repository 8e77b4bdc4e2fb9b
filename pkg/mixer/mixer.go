// Package mixer plays sound effects on a fixed pool of channels and music
// tracks from a queue, on top of Ebitengine/audio.
//
// Sounds are decoded to 16-bit little-endian stereo PCM at SampleRate.
// MIDI tracks are rendered on the fly with go-meltysynth.
package mixer

import (
	"errors"
	"io"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleRate is the sample rate used for decoding and MIDI synthesis.
const SampleRate = 44100

// bytesPerFrame is the size of one stereo 16-bit sample frame.
const bytesPerFrame = 4

// Mixer errors
var (
	// ErrInvalidArgument is returned when a required argument is nil or out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrChannelOutOfRange is returned for a channel number outside the pool.
	ErrChannelOutOfRange = errors.New("channel out of range")

	// ErrNoFreeChannel is returned when every channel is busy.
	ErrNoFreeChannel = errors.New("no free channel")

	// ErrInvalidFormat is returned when audio data cannot be decoded.
	ErrInvalidFormat = errors.New("invalid audio format")

	// ErrNoSoundFont is returned when a MIDI track is created without a synthesizer.
	ErrNoSoundFont = errors.New("SoundFont is required for MIDI playback")

	// ErrDuplicateSound is returned when a sound set already holds a name.
	ErrDuplicateSound = errors.New("duplicate sound")
)

// Player controls playback of one stream. *audio.Player satisfies it.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	Rewind() error
	Position() time.Duration
	Volume() float64
	SetVolume(volume float64)
	Close() error
}

var _ Player = (*audio.Player)(nil)

// Backend creates players for PCM streams.
type Backend interface {
	NewPlayer(src io.Reader) (Player, error)
}

// EbitenBackend creates players on an Ebitengine audio context.
type EbitenBackend struct {
	ctx *audio.Context
}

// NewEbitenBackend returns a backend for ctx. When ctx is nil the current
// context is used, or a new one is created at SampleRate.
func NewEbitenBackend(ctx *audio.Context) *EbitenBackend {
	if ctx == nil {
		ctx = audio.CurrentContext()
	}
	if ctx == nil {
		ctx = audio.NewContext(SampleRate)
	}
	return &EbitenBackend{ctx: ctx}
}

// NewPlayer implements Backend.
func (b *EbitenBackend) NewPlayer(src io.Reader) (Player, error) {
	p, err := b.ctx.NewPlayer(src)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Context returns the underlying audio context.
func (b *EbitenBackend) Context() *audio.Context {
	return b.ctx
}

// pcmDuration returns the playing time of n bytes of PCM.
func pcmDuration(n int) time.Duration {
	return time.Duration(n/bytesPerFrame) * time.Second / SampleRate
}

func clampVolume(v float64) float64 {
	return max(0, min(v, 1))
}
