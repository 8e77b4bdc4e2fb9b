package mixer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/logger"
)

// DefaultChannels is the pool size used when none is given.
const DefaultChannels = 8

// AnyChannel asks Play to pick the first free channel.
const AnyChannel = -1

type channel struct {
	sound  *Sound
	player Player
	volume float64
	paused bool
}

// Channels is a fixed pool of sound channels. A finished channel is
// reported once as event.ChannelFinished from Poll.
type Channels struct {
	backend    Backend
	dispatcher *event.Dispatcher
	channels   []channel
	muted      bool
	log        *slog.Logger

	mu sync.Mutex
}

// NewChannels creates a pool of n channels. d may be nil when nobody
// listens for ChannelFinished.
func NewChannels(backend Backend, n int, d *event.Dispatcher) (*Channels, error) {
	if backend == nil || n <= 0 {
		return nil, fmt.Errorf("new channels: %w", ErrInvalidArgument)
	}
	c := &Channels{
		backend:    backend,
		dispatcher: d,
		channels:   make([]channel, n),
		log:        logger.GetLogger(),
	}
	for i := range c.channels {
		c.channels[i].volume = 1
	}
	return c, nil
}

// SetLogger replaces the logger.
func (c *Channels) SetLogger(log *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = log
}

// Len returns the number of channels.
func (c *Channels) Len() int {
	return len(c.channels)
}

func (c *Channels) check(ch int) error {
	if ch < 0 || ch >= len(c.channels) {
		return fmt.Errorf("%w: %d", ErrChannelOutOfRange, ch)
	}
	return nil
}

// Play starts s on channel ch and returns the channel used. With
// AnyChannel the first idle channel is picked. A sound already on ch is
// stopped and reported as finished.
func (c *Channels) Play(ch int, s *Sound) (int, error) {
	if s == nil {
		return -1, fmt.Errorf("play: %w", ErrInvalidArgument)
	}

	c.mu.Lock()
	if ch == AnyChannel {
		ch = c.free()
		if ch < 0 {
			c.mu.Unlock()
			return -1, ErrNoFreeChannel
		}
	}
	if err := c.check(ch); err != nil {
		c.mu.Unlock()
		return -1, err
	}

	var finished []int
	if c.channels[ch].player != nil {
		c.halt(ch)
		finished = append(finished, ch)
	}

	gain := c.channels[ch].volume
	if c.muted {
		gain = 0
	}
	p, err := s.start(c.backend, gain)
	if err == nil {
		c.channels[ch].sound = s
		c.channels[ch].player = p
		c.channels[ch].paused = false
		c.log.Debug("Sound started", "channel", ch, "sound", s.Name())
	}
	c.mu.Unlock()

	c.publish(finished)
	if err != nil {
		return -1, err
	}
	return ch, nil
}

// free returns the first idle channel or -1. Must be called with c.mu held.
func (c *Channels) free() int {
	for i := range c.channels {
		if c.channels[i].player == nil {
			return i
		}
	}
	return -1
}

// halt closes the player on ch. Must be called with c.mu held.
func (c *Channels) halt(ch int) {
	slot := &c.channels[ch]
	if slot.player == nil {
		return
	}
	if err := slot.player.Close(); err != nil {
		c.log.Warn("Failed to close audio player", "channel", ch, "error", err)
	}
	slot.sound.release(slot.player)
	slot.sound = nil
	slot.player = nil
	slot.paused = false
}

// Stop halts channel ch.
func (c *Channels) Stop(ch int) error {
	c.mu.Lock()
	if err := c.check(ch); err != nil {
		c.mu.Unlock()
		return err
	}
	busy := c.channels[ch].player != nil
	c.halt(ch)
	c.mu.Unlock()

	if busy {
		c.publish([]int{ch})
	}
	return nil
}

// StopAll halts every channel.
func (c *Channels) StopAll() {
	c.mu.Lock()
	var finished []int
	for i := range c.channels {
		if c.channels[i].player != nil {
			c.halt(i)
			finished = append(finished, i)
		}
	}
	c.mu.Unlock()
	c.publish(finished)
}

// Pause pauses channel ch. Paused channels are not reported as finished.
func (c *Channels) Pause(ch int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(ch); err != nil {
		return err
	}
	if slot := &c.channels[ch]; slot.player != nil {
		slot.player.Pause()
		slot.paused = true
	}
	return nil
}

// Resume continues a paused channel.
func (c *Channels) Resume(ch int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(ch); err != nil {
		return err
	}
	if slot := &c.channels[ch]; slot.player != nil && slot.paused {
		slot.player.Play()
		slot.paused = false
	}
	return nil
}

// IsPlaying reports whether ch holds a sound that has not finished.
func (c *Channels) IsPlaying(ch int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.check(ch) != nil {
		return false
	}
	slot := c.channels[ch]
	return slot.player != nil && (slot.paused || slot.player.IsPlaying())
}

// IsPaused reports whether ch is paused.
func (c *Channels) IsPaused(ch int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.check(ch) == nil && c.channels[ch].paused
}

// Sound returns the sound on ch, or nil.
func (c *Channels) Sound(ch int) *Sound {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.check(ch) != nil {
		return nil
	}
	return c.channels[ch].sound
}

// Volume returns the volume of ch.
func (c *Channels) Volume(ch int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.check(ch) != nil {
		return 0
	}
	return c.channels[ch].volume
}

// SetVolume sets the volume of ch, clamped to [0, 1]. It also applies to
// the sound currently playing there.
func (c *Channels) SetVolume(ch int, v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(ch); err != nil {
		return err
	}
	slot := &c.channels[ch]
	slot.volume = clampVolume(v)
	c.apply(slot)
	return nil
}

// SetMuted silences every channel without stopping it.
func (c *Channels) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
	for i := range c.channels {
		c.apply(&c.channels[i])
	}
}

// IsMuted reports whether the pool is muted.
func (c *Channels) IsMuted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// apply pushes the effective volume to the slot's player. Must be called
// with c.mu held.
func (c *Channels) apply(slot *channel) {
	if slot.player == nil {
		return
	}
	v := slot.volume * slot.sound.Volume()
	if c.muted {
		v = 0
	}
	slot.player.SetVolume(v)
}

// Playing returns the number of busy channels.
func (c *Channels) Playing() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, slot := range c.channels {
		if slot.player != nil {
			n++
		}
	}
	return n
}

// Poll releases channels whose sound has ended and publishes a
// ChannelFinished event for each. Call it once per frame.
func (c *Channels) Poll() {
	c.mu.Lock()
	var finished []int
	for i := range c.channels {
		slot := &c.channels[i]
		if slot.player == nil || slot.paused || slot.player.IsPlaying() {
			continue
		}
		c.halt(i)
		finished = append(finished, i)
	}
	c.mu.Unlock()
	c.publish(finished)
}

func (c *Channels) publish(finished []int) {
	if c.dispatcher == nil {
		return
	}
	for _, ch := range finished {
		c.dispatcher.Publish(event.ChannelFinished{Channel: ch})
	}
}
