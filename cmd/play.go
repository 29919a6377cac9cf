package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/player"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/urfave/cli/v3"
)

// newPlayer creates a [player.Player] backed by the speaker.
func (r *Runner) newPlayer() *player.Player {
	handle := player.NewBeepHandle(r.streamClient, r.logger)
	return player.New(handle, r.client.StreamURL, r.bus, r.logger)
}

// Play streams a song by id and blocks until it ends or the command is interrupted.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	p := r.newPlayer()
	defer p.Close()

	// ended closes once playback has started and then stopped.
	ended := make(chan struct{})
	var once sync.Once
	var started atomic.Bool
	unsubscribe := p.Subscribe(func(s models.PlayerState) {
		switch {
		case s.IsPlaying:
			started.Store(true)
		case s.CurrentTrack != nil && started.Load():
			once.Do(func() { close(ended) })
		}
	})
	defer unsubscribe()

	track := models.Track{ID: id, Title: id}
	if !p.PlaySong(ctx, track) {
		return fmt.Errorf("%w: %s", shared.ErrInvalidArgument, player.CannotPlayMessage)
	}

	state := p.State()
	if !state.IsPlaying {
		return fmt.Errorf("%w: could not start %s", shared.ErrServiceUnavailable, state.CurrentTrack.StreamURL)
	}

	r.writePlain("▶ Playing %s\n", state.CurrentTrack.StreamURL)

	select {
	case <-ended:
		return r.writePlain("■ Finished\n")
	case <-ctx.Done():
		return r.writePlain("■ Stopped\n")
	}
}
