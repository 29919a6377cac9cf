package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/musicbox/internal/api"
	"github.com/desertthunder/musicbox/internal/forms"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/tags"
)

const (
	DefaultWorkers   = 3
	MaxWorkers       = 10
	DefaultRateLimit = 2.0
)

// BulkUploadOpts configures [UploadEngine.BulkUpload].
type BulkUploadOpts struct {
	Token        string  // optional bearer token
	NumWorkers   int     // concurrent uploads (default: 3, max: 10)
	RateLimit    float64 // uploads started per second (default: 2)
	ManifestPath string  // when set, a JSON summary is written here
}

// BulkUpload uploads paths concurrently with rate limiting and progress tracking.
//
// Each file is validated and its tags read before upload. Individual failures
// are recorded in the result; the returned error is reserved for setup
// failures and cancellation.
func (e *UploadEngine) BulkUpload(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	paths []string,
	opts BulkUploadOpts,
) (*BulkUploadResult, error) {
	if e.uploader == nil {
		return nil, fmt.Errorf("%w: uploader not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}

	result := &BulkUploadResult{
		TotalFiles: len(paths),
		Results:    make([]FileUploadResult, 0, len(paths)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan string, len(paths))
	results := make(chan FileUploadResult, len(paths))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.uploadWorker(ctx, &wg, limiter, jobs, results, opts.Token)
	}

	e.sendProgress(prog, scanFilesUpdate(len(paths)))
	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if !res.Success() {
			res.Reason = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success() {
			result.Uploaded++
			e.sendProgress(prog, uploadCompletedUpdate(completed, len(paths), res.Label()))
		} else {
			result.Failed++
			e.sendProgress(prog, uploadFailedUpdate(completed, len(paths), res.Path, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if opts.ManifestPath != "" {
		if err := writeManifest(result, opts.ManifestPath); err != nil {
			return result, fmt.Errorf("upload completed but failed to write manifest: %w", err)
		}
	}
	return result, nil
}

// uploadWorker uploads files from jobs until the channel closes or ctx is done.
func (e *UploadEngine) uploadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan string,
	results chan<- FileUploadResult,
	token string,
) {
	defer wg.Done()

	for path := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- FileUploadResult{Path: path, Error: err}
			continue
		}
		results <- e.uploadFile(ctx, path, token)
	}
}

// UploadFile uploads a single file, prefilling title and artist from its tags
// unless explicit values are given.
func (e *UploadEngine) UploadFile(ctx context.Context, path, token, title, artist string) FileUploadResult {
	res := FileUploadResult{Path: path}

	if v := forms.ValidateUpload(path, ""); v != nil {
		res.Error = v
		return res
	}

	md, err := tags.ReadFile(path)
	if err != nil {
		res.Error = err
		return res
	}
	res.Title, res.Artist = md.Prefill(title, artist)

	f, err := os.Open(path)
	if err != nil {
		res.Error = fmt.Errorf("failed to open %s: %w", path, err)
		return res
	}
	defer f.Close()

	track, err := e.uploader.UploadSong(ctx, token, api.Upload{
		Filename: fileName(path),
		File:     f,
		Title:    res.Title,
		Artist:   res.Artist,
	})
	if err != nil {
		res.Error = err
		return res
	}

	e.logger.Debug("uploaded", "path", path, "id", track.ID)
	res.Track = track
	return res
}

func (e *UploadEngine) uploadFile(ctx context.Context, path, token string) FileUploadResult {
	return e.UploadFile(ctx, path, token, "", "")
}

func writeManifest(result *BulkUploadResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
