package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"time"
)

// Snapshot is the diagnostic capture of a failed fetch
type Snapshot struct {
	URL        string
	Stage      string
	Reason     string
	Screenshot []byte
	HTML       string
	TakenAt    time.Time
}

// SnapshotReporter receives diagnostics for failed fetches
type SnapshotReporter interface {
	Capture(ctx context.Context, snap Snapshot) error
}

type nopReporter struct{}

func (nopReporter) Capture(context.Context, Snapshot) error { return nil }

// NopReporter discards snapshots
func NopReporter() SnapshotReporter { return nopReporter{} }

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// FileSnapshotReporter writes error_<stage>_<HHMMSS>_<seq>.png and .html
// files into Dir
type FileSnapshotReporter struct {
	Dir string
	seq atomic.Uint64
}

// NewFileSnapshotReporter returns a reporter writing into dir, or a no-op
// reporter when dir is empty
func NewFileSnapshotReporter(dir string) SnapshotReporter {
	if dir == "" {
		return NopReporter()
	}
	return &FileSnapshotReporter{Dir: dir}
}

func (r *FileSnapshotReporter) Capture(_ context.Context, snap Snapshot) error {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	taken := snap.TakenAt
	if taken.IsZero() {
		taken = time.Now()
	}
	stage := unsafeName.ReplaceAllString(snap.Stage, "_")
	if stage == "" {
		stage = "unknown"
	}
	base := filepath.Join(r.Dir, fmt.Sprintf("error_%s_%s_%d", stage, taken.Format("150405"), r.seq.Add(1)))

	if len(snap.Screenshot) > 0 {
		if err := os.WriteFile(base+".png", snap.Screenshot, 0644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
	}
	if snap.HTML != "" {
		body := fmt.Sprintf("<!-- %s | %s -->\n%s", snap.URL, snap.Reason, snap.HTML)
		if err := os.WriteFile(base+".html", []byte(body), 0644); err != nil {
			return fmt.Errorf("failed to write html snapshot: %w", err)
		}
	}
	return nil
}
