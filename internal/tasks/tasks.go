package tasks

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicbox/internal/api"
	"github.com/desertthunder/musicbox/internal/forms"
	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/tags"
)

// Uploader uploads a single song. Implemented by [api.Client].
type Uploader interface {
	UploadSong(ctx context.Context, token string, up api.Upload) (*models.Track, error)
}

// UploadEngine runs bulk uploads against an [Uploader].
type UploadEngine struct {
	uploader Uploader
	logger   *log.Logger
}

// NewUploadEngine creates an [UploadEngine]. A nil logger discards output.
func NewUploadEngine(uploader Uploader, logger *log.Logger) *UploadEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &UploadEngine{uploader: uploader, logger: logger}
}

// FileUploadResult is the outcome of uploading one file.
type FileUploadResult struct {
	Path   string        `json:"path"`
	Title  string        `json:"title"`
	Artist string        `json:"artist,omitempty"`
	Track  *models.Track `json:"track,omitempty"`
	Error  error         `json:"-"`
	Reason string        `json:"error,omitempty"`
}

// Success reports whether the upload went through.
func (r FileUploadResult) Success() bool { return r.Error == nil }

// Label names the upload for display: the server's title, the sent title,
// then the file name.
func (r FileUploadResult) Label() string {
	switch {
	case r.Track != nil && r.Track.Title != "" && r.Track.Title != models.UntitledTrack:
		return r.Track.Title
	case r.Title != "":
		return r.Title
	default:
		return tags.FallbackTitle(r.Path)
	}
}

// BulkUploadResult summarizes a bulk upload.
type BulkUploadResult struct {
	TotalFiles int                `json:"total_files"`
	Uploaded   int                `json:"uploaded"`
	Failed     int                `json:"failed"`
	Results    []FileUploadResult `json:"results"`
}

// FindMP3s returns the MP3 files under dir, sorted by path.
func FindMP3s(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if forms.IsMP3(d.Name(), "") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// sendProgress sends an update without blocking.
func (e *UploadEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
		e.logger.Debug("dropped progress update", "phase", update.Phase, "step", update.Step)
	}
}
