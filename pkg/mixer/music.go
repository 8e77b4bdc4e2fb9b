package mixer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/spritekit/pkg/fileutil"
)

// Synth renders MIDI tracks with a SoundFont.
type Synth struct {
	soundFont *meltysynth.SoundFont
}

// NewSynth parses a SoundFont (.sf2) stream.
func NewSynth(r io.Reader) (*Synth, error) {
	if r == nil {
		return nil, ErrNoSoundFont
	}
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}
	return &Synth{soundFont: sf}, nil
}

// LoadSynth reads a SoundFont file from fsys.
func LoadSynth(fsys fs.FS, name string) (*Synth, error) {
	if fsys == nil || name == "" {
		return nil, ErrNoSoundFont
	}
	data, err := fileutil.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSoundFont, err)
	}
	return NewSynth(bytes.NewReader(data))
}

// Music is a track for a MusicQueue: either decoded PCM or a MIDI file.
type Music struct {
	name   string
	pcm    []byte
	midi   *meltysynth.MidiFile
	synth  *Synth
	length time.Duration
}

// NewMusic wraps 16-bit stereo PCM at SampleRate.
func NewMusic(name string, pcm []byte) *Music {
	return &Music{name: name, pcm: pcm, length: pcmDuration(len(pcm))}
}

// DecodeMusicWAV decodes a WAV stream into a track.
func DecodeMusicWAV(name string, r io.Reader) (*Music, error) {
	pcm, err := decodeWAV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return NewMusic(name, pcm), nil
}

// NewMIDIMusic parses a Standard MIDI File to be rendered by synth.
func NewMIDIMusic(name string, r io.Reader, synth *Synth) (*Music, error) {
	if synth == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSoundFont)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file %s: %w", name, err)
	}
	midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrInvalidFormat, err)
	}
	return &Music{name: name, midi: midi, synth: synth, length: midi.GetLength()}, nil
}

// LoadMusic loads a track from fsys. Files ending in .mid or .midi are
// rendered by synth; anything else is decoded as WAV.
func LoadMusic(fsys fs.FS, name string, synth *Synth) (*Music, error) {
	if fsys == nil {
		return nil, fmt.Errorf("load music %s: %w", name, ErrInvalidArgument)
	}
	data, err := fileutil.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("load music: %w", err)
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".mid", ".midi":
		return NewMIDIMusic(name, bytes.NewReader(data), synth)
	default:
		return DecodeMusicWAV(name, bytes.NewReader(data))
	}
}

// Name returns the track name.
func (m *Music) Name() string { return m.name }

// Length returns the playing time.
func (m *Music) Length() time.Duration { return m.length }

// IsMIDI reports whether the track is synthesized.
func (m *Music) IsMIDI() bool { return m.midi != nil }

// open returns a fresh PCM stream for the track.
func (m *Music) open() (io.Reader, error) {
	if m.midi == nil {
		return bytes.NewReader(m.pcm), nil
	}
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(m.synth.soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	seq := meltysynth.NewMidiFileSequencer(synth)
	seq.Play(m.midi, false)
	return &midiStream{sequencer: seq}, nil
}

// midiStream renders sequencer output as 16-bit stereo PCM.
type midiStream struct {
	sequencer *meltysynth.MidiFileSequencer
	stopped   bool
	mu        sync.Mutex
}

// Read implements io.Reader. A stopped stream yields silence.
func (s *midiStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.sequencer == nil {
		clear(p)
		return len(p), nil
	}

	samples := len(p) / bytesPerFrame
	if samples == 0 {
		return 0, nil
	}
	left := make([]float32, samples)
	right := make([]float32, samples)
	s.sequencer.Render(left, right)
	for i := range samples {
		binary.LittleEndian.PutUint16(p[i*4:], uint16(toInt16(left[i])))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(toInt16(right[i])))
	}
	return samples * bytesPerFrame, nil
}

// Stop makes later reads return silence.
func (s *midiStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func toInt16(v float32) int16 {
	return int16(max(-1, min(v, 1)) * 32767)
}
