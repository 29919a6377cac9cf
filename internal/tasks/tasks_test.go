package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/musicbox/internal/api"
	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/shared"
	th "github.com/desertthunder/musicbox/internal/testing"
)

// fakeUploader records uploads and fails files whose name contains "bad".
type fakeUploader struct {
	mu      sync.Mutex
	uploads []api.Upload
	tokens  []string
}

func (f *fakeUploader) UploadSong(ctx context.Context, token string, up api.Upload) (*models.Track, error) {
	io.Copy(io.Discard, up.File)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, up)
	f.tokens = append(f.tokens, token)

	if strings.Contains(up.Filename, "bad") {
		return nil, &shared.APIError{Message: "Request failed (400 Bad Request)", StatusCode: 400}
	}
	return &models.Track{ID: up.Filename, Title: up.Title, Artist: up.Artist}, nil
}

func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(p, []byte("fake audio"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestFindMP3s(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.mp3", "a.MP3", "notes.txt", "nested/c.mp3")

	paths, err := FindMP3s(dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{filepath.Join(dir, "a.MP3"), filepath.Join(dir, "b.mp3"), filepath.Join(dir, "nested", "c.mp3")}
	sort.Strings(want)
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, paths)
	}

	if _, err := FindMP3s(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestBulkUpload(t *testing.T) {
	t.Run("Uploads And Collects Failures", func(t *testing.T) {
		dir := t.TempDir()
		paths := writeFiles(t, dir, "one.mp3", "two.mp3", "bad.mp3", "cover.jpg")
		uploader := &fakeUploader{}
		engine := NewUploadEngine(uploader, nil)

		prog := make(chan ProgressUpdate, 16)
		manifest := filepath.Join(dir, "manifest.json")
		res, err := engine.BulkUpload(context.Background(), prog, paths, BulkUploadOpts{
			Token:        "tok",
			NumWorkers:   2,
			RateLimit:    1000,
			ManifestPath: manifest,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if res.TotalFiles != 4 || res.Uploaded != 2 || res.Failed != 2 {
			t.Errorf("unexpected counts %+v", res)
		}
		if len(uploader.uploads) != 3 {
			t.Errorf("expected the jpg to be rejected before upload, got %d uploads", len(uploader.uploads))
		}
		for _, tok := range uploader.tokens {
			if tok != "tok" {
				t.Errorf("expected token to be forwarded, got %q", tok)
			}
		}

		for _, r := range res.Results {
			if filepath.Base(r.Path) == "one.mp3" && r.Title != "" {
				t.Errorf("expected blank title for an untagged file, got %q", r.Title)
			}
			if !r.Success() && r.Reason == "" {
				t.Errorf("expected failure reason for %s", r.Path)
			}
		}

		th.AssertFileExists(t, manifest)
		var decoded BulkUploadResult
		if err := json.Unmarshal([]byte(th.MustReadFile(t, manifest)), &decoded); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if decoded.Uploaded != 2 {
			t.Errorf("unexpected manifest %+v", decoded)
		}

		close(prog)
		var updates []ProgressUpdate
		for u := range prog {
			updates = append(updates, u)
		}
		if len(updates) != 5 || updates[0].Phase != ScanFiles {
			t.Errorf("expected scan + 4 upload updates, got %d", len(updates))
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		engine := NewUploadEngine(&fakeUploader{}, nil)
		res, err := engine.BulkUpload(context.Background(), nil, nil, BulkUploadOpts{NumWorkers: 99})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.TotalFiles != 0 {
			t.Errorf("expected empty result, got %+v", res)
		}
	})

	t.Run("Nil Uploader", func(t *testing.T) {
		engine := NewUploadEngine(nil, nil)
		_, err := engine.BulkUpload(context.Background(), nil, nil, BulkUploadOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		dir := t.TempDir()
		paths := writeFiles(t, dir, "one.mp3", "two.mp3")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := NewUploadEngine(&fakeUploader{}, nil).BulkUpload(ctx, nil, paths, BulkUploadOpts{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if res.Uploaded != 0 || res.Failed != 2 {
			t.Errorf("expected every file to fail, got %+v", res)
		}
	})
}

func TestUploadFile(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, "demo.mp3")
	uploader := &fakeUploader{}

	res := NewUploadEngine(uploader, nil).UploadFile(context.Background(), paths[0], "", "Explicit", "Me")
	if !res.Success() {
		t.Fatalf("expected success, got %v", res.Error)
	}
	if res.Track.Title != "Explicit" || res.Track.Artist != "Me" {
		t.Errorf("expected explicit metadata, got %+v", res.Track)
	}
	if uploader.uploads[0].Filename != "demo.mp3" {
		t.Errorf("expected base file name, got %s", uploader.uploads[0].Filename)
	}
}

func TestUploadFileOmitsBlankTitle(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, "untagged.mp3")
	uploader := &fakeUploader{}

	res := NewUploadEngine(uploader, nil).UploadFile(context.Background(), paths[0], "", "  ", "")
	if !res.Success() {
		t.Fatalf("expected success, got %v", res.Error)
	}
	if got := uploader.uploads[0].Title; got != "" {
		t.Errorf("expected no title sent for an untagged file, got %q", got)
	}
	if res.Label() != "untagged" {
		t.Errorf("expected file name label, got %q", res.Label())
	}
}
