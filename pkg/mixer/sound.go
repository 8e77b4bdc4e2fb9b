package mixer

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/zurustar/spritekit/pkg/fileutil"
)

// Sound is a decoded sample that can play on several channels at once.
type Sound struct {
	name   string
	pcm    []byte
	volume float64

	mu   sync.Mutex
	live []Player
}

// NewSound wraps 16-bit stereo PCM at SampleRate.
func NewSound(name string, pcm []byte) *Sound {
	return &Sound{name: name, pcm: pcm, volume: 1}
}

// DecodeWAV decodes a WAV stream (PCM, 8-bit or 16-bit) into a Sound.
func DecodeWAV(name string, r io.Reader) (*Sound, error) {
	pcm, err := decodeWAV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return NewSound(name, pcm), nil
}

func decodeWAV(r io.Reader) ([]byte, error) {
	stream, err := wav.DecodeWithSampleRate(SampleRate, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return pcm, nil
}

// LoadSound reads and decodes a WAV file from fsys. The name is matched
// case-insensitively.
func LoadSound(fsys fs.FS, name string) (*Sound, error) {
	if fsys == nil {
		return nil, fmt.Errorf("load sound %s: %w", name, ErrInvalidArgument)
	}
	data, err := fileutil.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("load sound: %w", err)
	}
	return DecodeWAV(name, bytes.NewReader(data))
}

// Name returns the name the sound was created with.
func (s *Sound) Name() string { return s.name }

// PCM returns the decoded samples.
func (s *Sound) PCM() []byte { return s.pcm }

// Length returns the playing time.
func (s *Sound) Length() time.Duration { return pcmDuration(len(s.pcm)) }

// Volume returns the volume in [0, 1].
func (s *Sound) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume sets the volume used by later plays, clamped to [0, 1].
func (s *Sound) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampVolume(v)
}

// Playing returns the number of players of this sound that are still running.
func (s *Sound) Playing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.live {
		if p.IsPlaying() {
			n++
		}
	}
	return n
}

// Stop halts every player started for this sound. Channels holding them
// report ChannelFinished on their next Poll.
func (s *Sound) Stop() {
	s.mu.Lock()
	live := s.live
	s.live = nil
	s.mu.Unlock()

	for _, p := range live {
		p.Pause()
	}
}

// start creates and starts a player at volume gain*Volume().
func (s *Sound) start(b Backend, gain float64) (Player, error) {
	p, err := b.NewPlayer(bytes.NewReader(s.pcm))
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player for %s: %w", s.name, err)
	}

	s.mu.Lock()
	p.SetVolume(gain * s.volume)
	s.live = append(s.live, p)
	s.mu.Unlock()

	p.Play()
	return p, nil
}

// release forgets p.
func (s *Sound) release(p Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = slices.DeleteFunc(s.live, func(q Player) bool { return q == p })
}
