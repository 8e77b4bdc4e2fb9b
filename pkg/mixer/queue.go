package mixer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/logger"
)

// MusicQueue plays one track at a time. When the current track ends Poll
// publishes event.MusicFinished and starts the next queued track.
type MusicQueue struct {
	backend    Backend
	dispatcher *event.Dispatcher
	log        *slog.Logger

	current *Music
	player  Player
	stream  *midiStream
	queue   []*Music
	volume  float64
	muted   bool
	paused  bool

	mu sync.Mutex
}

// NewMusicQueue creates an idle queue. d may be nil.
func NewMusicQueue(backend Backend, d *event.Dispatcher) (*MusicQueue, error) {
	if backend == nil {
		return nil, fmt.Errorf("new music queue: %w", ErrInvalidArgument)
	}
	return &MusicQueue{
		backend:    backend,
		dispatcher: d,
		log:        logger.GetLogger(),
		volume:     1,
	}, nil
}

// SetLogger replaces the logger.
func (q *MusicQueue) SetLogger(log *slog.Logger) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.log = log
}

// Play stops the current track and starts m immediately. The queue is kept.
func (q *MusicQueue) Play(m *Music) error {
	if m == nil {
		return fmt.Errorf("play music: %w", ErrInvalidArgument)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopInternal()
	return q.startInternal(m)
}

// Enqueue appends tracks. If nothing is playing the first one starts.
func (q *MusicQueue) Enqueue(tracks ...*Music) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, m := range tracks {
		if m == nil {
			return fmt.Errorf("enqueue music: %w", ErrInvalidArgument)
		}
	}
	q.queue = append(q.queue, tracks...)
	if q.current == nil {
		return q.nextInternal()
	}
	return nil
}

// Queue returns the tracks waiting after the current one.
func (q *MusicQueue) Queue() []*Music {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Music(nil), q.queue...)
}

// ClearQueue drops every waiting track.
func (q *MusicQueue) ClearQueue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = nil
}

// Current returns the playing track, or nil.
func (q *MusicQueue) Current() *Music {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Skip stops the current track and starts the next queued one.
func (q *MusicQueue) Skip() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopInternal()
	return q.nextInternal()
}

// Stop halts the current track without starting the next one.
func (q *MusicQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopInternal()
}

// Pause pauses the current track.
func (q *MusicQueue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.player != nil {
		q.player.Pause()
		q.paused = true
	}
}

// Resume continues a paused track.
func (q *MusicQueue) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.player != nil && q.paused {
		q.player.Play()
		q.paused = false
	}
}

// IsPlaying reports whether a track is loaded and not paused.
func (q *MusicQueue) IsPlaying() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.player != nil && !q.paused
}

// IsPaused reports whether the current track is paused.
func (q *MusicQueue) IsPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Volume returns the music volume.
func (q *MusicQueue) Volume() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.volume
}

// SetVolume sets the music volume, clamped to [0, 1].
func (q *MusicQueue) SetVolume(v float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.volume = clampVolume(v)
	q.apply()
}

// SetMuted silences the music without stopping it.
func (q *MusicQueue) SetMuted(muted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.muted = muted
	q.apply()
}

// IsMuted reports whether the music is muted.
func (q *MusicQueue) IsMuted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.muted
}

// Poll detects the end of the current track. It publishes MusicFinished
// and starts the next queued track. Call it once per frame.
func (q *MusicQueue) Poll() {
	q.mu.Lock()
	if q.player == nil || q.paused || !q.ended() {
		q.mu.Unlock()
		return
	}
	finished := q.current.Name()
	q.stopInternal()
	q.log.Debug("Music finished", "track", finished)
	if err := q.nextInternal(); err != nil {
		q.log.Error("Failed to start next track", "error", err)
	}
	q.mu.Unlock()

	if q.dispatcher != nil {
		q.dispatcher.Publish(event.MusicFinished{Track: finished})
	}
}

// ended reports whether the player ran out of data or past the track
// length. Must be called with q.mu held.
func (q *MusicQueue) ended() bool {
	return !q.player.IsPlaying() || q.player.Position() >= q.current.Length()
}

// apply pushes the effective volume to the player. Must be called with
// q.mu held.
func (q *MusicQueue) apply() {
	if q.player == nil {
		return
	}
	if q.muted {
		q.player.SetVolume(0)
		return
	}
	q.player.SetVolume(q.volume)
}

// nextInternal starts the first queued track, if any. Must be called with
// q.mu held.
func (q *MusicQueue) nextInternal() error {
	if len(q.queue) == 0 {
		return nil
	}
	m := q.queue[0]
	q.queue = q.queue[1:]
	return q.startInternal(m)
}

// startInternal starts m. Must be called with q.mu held.
func (q *MusicQueue) startInternal(m *Music) error {
	src, err := m.open()
	if err != nil {
		return err
	}
	p, err := q.backend.NewPlayer(src)
	if err != nil {
		return fmt.Errorf("failed to create audio player for %s: %w", m.Name(), err)
	}
	q.current = m
	q.player = p
	q.stream, _ = src.(*midiStream)
	q.paused = false
	q.apply()
	p.Play()
	q.log.Info("Music started", "track", m.Name(), "length", m.Length(), "midi", m.IsMIDI())
	return nil
}

// stopInternal closes the current player. Must be called with q.mu held.
func (q *MusicQueue) stopInternal() {
	if q.stream != nil {
		q.stream.Stop()
	}
	if q.player != nil {
		if err := q.player.Close(); err != nil {
			q.log.Warn("Failed to close audio player", "error", err)
		}
	}
	q.current = nil
	q.player = nil
	q.stream = nil
	q.paused = false
}
