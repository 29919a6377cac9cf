package tasks

import (
	"fmt"
	"path/filepath"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScanFiles Phase = iota
	UploadSong
)

func (p Phase) String() string {
	switch p {
	case ScanFiles:
		return "scan_files"
	case UploadSong:
		return "upload_song"
	default:
		return ""
	}
}

func fileName(path string) string { return filepath.Base(path) }

func scanFilesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFiles,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Uploading %d file(s)...", total),
	}
}

func uploadCompletedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}

func uploadFailedUpdate(step, total int, path string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, fileName(path), err),
		Data:    err,
	}
}
