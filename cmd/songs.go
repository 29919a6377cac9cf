package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/musicbox/internal/formatter"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SongsList lists the library as a table, CSV, Markdown or JSON.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	token, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	tracks, err := r.client.ListSongs(ctx, token)
	if err != nil {
		return err
	}
	r.logger.Debug("fetched library", "count", len(tracks))

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteLibraryExport(tracks, format, path); err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d song(s) to %s\n", len(tracks), path)
	}

	if len(tracks) == 0 {
		return r.writePlain("%s\n", formatter.EmptyLibraryMessage)
	}

	out, err := formatter.Render(tracks, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", strings.TrimRight(string(out), "\n"))
}

// SongsUpload uploads a single mp3.
func (r *Runner) SongsUpload(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("file"))
	if path == "" {
		return fmt.Errorf("%w: file path is required", shared.ErrMissingArgument)
	}

	token, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	res := r.engine.UploadFile(ctx, shared.ExpandHome(path), token, cmd.String("title"), cmd.String("artist"))
	if !res.Success() {
		return res.Error
	}

	r.writePlain("✓ Uploaded %s\n", res.Label())
	r.writePlain("Artist: %s\n", formatter.ArtistLabel(res.Artist))
	if res.Track != nil && res.Track.ID != "" {
		r.writePlain("ID: %s\n", res.Track.ID)
	}
	return nil
}

// SongsUploadDir uploads every mp3 under a directory through the bulk upload engine.
func (r *Runner) SongsUploadDir(ctx context.Context, cmd *cli.Command) error {
	dir := strings.TrimSpace(cmd.StringArg("dir"))
	if dir == "" {
		return fmt.Errorf("%w: directory is required", shared.ErrMissingArgument)
	}

	token, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	paths, err := tasks.FindMP3s(shared.ExpandHome(dir))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return r.writePlain("No mp3 files found in %s\n", dir)
	}

	opts := tasks.BulkUploadOpts{
		Token:        token,
		NumWorkers:   int(cmd.Int("workers")),
		RateLimit:    cmd.Float("rate"),
		ManifestPath: cmd.String("manifest"),
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = r.config.Upload.Workers
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Upload.RateLimit
	}

	r.logger.Info("starting bulk upload", "dir", dir, "files", len(paths), "workers", opts.NumWorkers)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ScanFiles:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.UploadSong:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BulkUpload(ctx, progressCh, paths, opts)
	close(progressCh)
	<-done

	if result != nil {
		r.writePlain("\n")
		r.writePlainHeader("Upload Complete!")
		r.writePlain("Uploaded: %d/%d\n", result.Uploaded, result.TotalFiles)
		if result.Failed > 0 {
			r.writePlain("\nFailed to upload %d file(s):\n", result.Failed)
			for _, res := range result.Results {
				if !res.Success() {
					r.writePlain("  - %s: %s\n", res.Path, res.Reason)
				}
			}
		}
		if opts.ManifestPath != "" && err == nil {
			r.writePlain("Manifest: %s\n", opts.ManifestPath)
		}
	}
	return err
}

// SongsStreamURL prints the stream URL for a song id.
func (r *Runner) SongsStreamURL(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}
	return r.writePlain("%s\n", r.client.StreamURL(id))
}
