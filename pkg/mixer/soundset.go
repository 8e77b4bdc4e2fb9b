package mixer

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// SoundSet is a named collection of sounds that can be adjusted together.
type SoundSet struct {
	sounds map[string]*Sound
	order  []string
}

// NewSoundSet creates an empty set.
func NewSoundSet() *SoundSet {
	return &SoundSet{sounds: make(map[string]*Sound)}
}

// Add adds s under its name.
func (ss *SoundSet) Add(s *Sound) error {
	if s == nil {
		return fmt.Errorf("add sound: %w", ErrInvalidArgument)
	}
	if _, ok := ss.sounds[s.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSound, s.Name())
	}
	ss.sounds[s.Name()] = s
	ss.order = append(ss.order, s.Name())
	return nil
}

// AddSounds adds every sound and returns how many were added. It stops at
// the first error.
func (ss *SoundSet) AddSounds(sounds ...*Sound) (int, error) {
	for i, s := range sounds {
		if err := ss.Add(s); err != nil {
			return i, err
		}
	}
	return len(sounds), nil
}

// AddSet adds the sounds of other that are not already present and returns
// how many were added.
func (ss *SoundSet) AddSet(other *SoundSet) (int, error) {
	if other == nil {
		return 0, fmt.Errorf("add sound set: %w", ErrInvalidArgument)
	}
	n := 0
	for _, name := range other.order {
		if _, ok := ss.sounds[name]; ok {
			continue
		}
		if err := ss.Add(other.sounds[name]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Load decodes each WAV file in names from fsys and adds it under its base
// name without extension.
func (ss *SoundSet) Load(fsys fs.FS, names ...string) error {
	for _, name := range names {
		s, err := LoadSound(fsys, name)
		if err != nil {
			return err
		}
		s.name = strings.TrimSuffix(path.Base(name), path.Ext(name))
		if err := ss.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the sound with name.
func (ss *SoundSet) Get(name string) (*Sound, bool) {
	s, ok := ss.sounds[name]
	return s, ok
}

// Remove removes the sound with name and reports whether it was present.
func (ss *SoundSet) Remove(name string) bool {
	if _, ok := ss.sounds[name]; !ok {
		return false
	}
	delete(ss.sounds, name)
	for i, n := range ss.order {
		if n == name {
			ss.order = append(ss.order[:i], ss.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the sound names in insertion order.
func (ss *SoundSet) Names() []string {
	return append([]string(nil), ss.order...)
}

// Len returns the number of sounds.
func (ss *SoundSet) Len() int {
	return len(ss.sounds)
}

// AverageVolume returns the mean volume, or 0 for an empty set.
func (ss *SoundSet) AverageVolume() float64 {
	if len(ss.sounds) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range ss.sounds {
		total += s.Volume()
	}
	return total / float64(len(ss.sounds))
}

// SetVolume sets the volume of every sound.
func (ss *SoundSet) SetVolume(v float64) {
	for _, s := range ss.sounds {
		s.SetVolume(v)
	}
}

// Stop halts every sound in the set.
func (ss *SoundSet) Stop() {
	for _, s := range ss.sounds {
		s.Stop()
	}
}
