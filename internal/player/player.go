// Package player owns the single shared playback handle.
//
// Exactly one track is current at a time. Starting a new track replaces the
// previous one; there is no queue. Only [Player] touches the [Handle].
package player

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicbox/internal/models"
)

// Messages shown when a track cannot be played.
const (
	CannotPlayTitle   = "Cannot play"
	CannotPlayMessage = "This song is missing an id from the server response."
)

// Handle is a playback resource that streams from a URL.
type Handle interface {
	// SetSource replaces the current source, stopping whatever was playing.
	SetSource(url string) error
	// Play starts or resumes playback. An error means the start was rejected.
	Play(ctx context.Context) error
	// Pause pauses playback. It cannot fail.
	Pause()
	// Paused reports whether the handle is not currently producing audio.
	Paused() bool
	// OnEnded registers fn to be called when the source finishes naturally.
	OnEnded(fn func())
	Close() error
}

// Notifier reports user-facing errors.
type Notifier interface {
	Error(title, message string) string
}

// Player tracks the current track and drives the shared [Handle].
type Player struct {
	handle    Handle
	streamURL func(id string) string
	notifier  Notifier
	logger    *log.Logger

	// ctl serializes calls into handle. It is never held together with mu
	// while waiting on the handle, so State and Subscribe stay responsive.
	ctl sync.Mutex

	mu      sync.Mutex
	state   models.PlayerState
	gen     uint64
	subs    map[int]func(models.PlayerState)
	nextSub int
}

// New creates a [Player] and registers for the handle's end-of-track event.
//
// streamURL derives a track's stream URL from its id.
func New(handle Handle, streamURL func(id string) string, notifier Notifier, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	p := &Player{
		handle:    handle,
		streamURL: streamURL,
		notifier:  notifier,
		logger:    logger,
		subs:      make(map[int]func(models.PlayerState)),
	}
	handle.OnEnded(p.OnEnded)
	return p
}

// State returns a snapshot of the player state.
func (p *Player) State() models.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Subscribe registers fn to receive a snapshot after every change.
func (p *Player) Subscribe(fn func(models.PlayerState)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// PlaySong plays track if it has an id. Tracks without one are rejected with
// an error notification and leave the state unchanged.
func (p *Player) PlaySong(ctx context.Context, track models.Track) bool {
	if !track.Playable() {
		if p.notifier != nil {
			p.notifier.Error(CannotPlayTitle, CannotPlayMessage)
		}
		return false
	}

	url := track.StreamURL
	if url == "" {
		url = p.streamURL(track.ID)
	}
	p.LoadAndPlay(ctx, track, url)
	return true
}

// LoadAndPlay makes track current, points the handle at streamURL and starts playback.
//
// The track becomes current before the handle is touched. If another track is
// loaded while this one is still starting, this call's outcome is dropped.
func (p *Player) LoadAndPlay(ctx context.Context, track models.Track, streamURL string) {
	t := track
	t.StreamURL = streamURL

	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.state = models.PlayerState{CurrentTrack: &t}
	p.mu.Unlock()
	p.notify()

	p.ctl.Lock()
	playing := false
	if p.current(gen) {
		if err := p.handle.SetSource(streamURL); err != nil {
			p.logger.Warn("failed to set source", "url", streamURL, "error", err)
		} else {
			playing = p.start(ctx)
		}
	}
	p.ctl.Unlock()

	if !p.apply(gen, playing) {
		p.logger.Debug("load superseded", "id", t.ID)
		return
	}
	p.logger.Debug("load and play", "id", t.ID, "title", t.Title, "playing", playing)
	p.notify()
}

// TogglePlay resumes a paused handle or pauses a playing one.
// Without a current track it does nothing.
func (p *Player) TogglePlay(ctx context.Context) {
	p.mu.Lock()
	gen := p.gen
	has := p.state.CurrentTrack != nil
	p.mu.Unlock()
	if !has {
		return
	}

	p.ctl.Lock()
	playing := false
	if p.handle.Paused() {
		playing = p.start(ctx)
	} else {
		p.handle.Pause()
	}
	p.ctl.Unlock()

	if p.apply(gen, playing) {
		p.notify()
	}
}

// current reports whether gen is still the latest load.
func (p *Player) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen
}

// apply records playing if no newer load has started since gen.
func (p *Player) apply(gen uint64, playing bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return false
	}
	p.state.IsPlaying = playing
	return true
}

// OnEnded marks playback as stopped and keeps the current track.
func (p *Player) OnEnded() {
	p.mu.Lock()
	p.state.IsPlaying = false
	p.mu.Unlock()

	p.notify()
}

// Close releases the handle.
func (p *Player) Close() error {
	p.ctl.Lock()
	defer p.ctl.Unlock()
	return p.handle.Close()
}

// start calls Play and reports whether playback is running. Callers hold p.ctl.
func (p *Player) start(ctx context.Context) bool {
	if err := p.handle.Play(ctx); err != nil {
		// Rejected starts are expected; the user resumes manually.
		p.logger.Debug("playback start rejected", "error", err)
		return false
	}
	return true
}

func (p *Player) snapshot() models.PlayerState {
	s := p.state
	if s.CurrentTrack != nil {
		t := *s.CurrentTrack
		s.CurrentTrack = &t
	}
	return s
}

func (p *Player) notify() {
	p.mu.Lock()
	snap := p.snapshot()
	subs := make([]func(models.PlayerState), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
