package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSnapshotReporterWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")
	reporter := NewFileSnapshotReporter(dir)

	taken := time.Date(2024, 5, 1, 13, 45, 9, 0, time.UTC)
	err := reporter.Capture(context.Background(), Snapshot{
		URL:        "https://shop.test/?page=1",
		Stage:      StageLoadingIndicator,
		Reason:     "timed out",
		Screenshot: []byte{0x89, 'P', 'N', 'G'},
		HTML:       "<html></html>",
		TakenAt:    taken,
	})
	require.NoError(t, err)

	pngs, _ := filepath.Glob(filepath.Join(dir, "error_loading-indicator_134509_*.png"))
	htmls, _ := filepath.Glob(filepath.Join(dir, "error_loading-indicator_134509_*.html"))
	require.Len(t, pngs, 1)
	require.Len(t, htmls, 1)

	body, err := os.ReadFile(htmls[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "<!-- https://shop.test/?page=1 | timed out -->"))
}

func TestFileSnapshotReporterUniqueNames(t *testing.T) {
	dir := t.TempDir()
	reporter := NewFileSnapshotReporter(dir)
	taken := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, reporter.Capture(context.Background(), Snapshot{Stage: StageContent, HTML: "<p>x</p>", TakenAt: taken}))
	}
	files, _ := filepath.Glob(filepath.Join(dir, "*.html"))
	assert.Len(t, files, 3)
}

func TestNewFileSnapshotReporterWithoutDir(t *testing.T) {
	reporter := NewFileSnapshotReporter("")
	assert.NoError(t, reporter.Capture(context.Background(), Snapshot{HTML: "<p></p>"}))
	_, isNop := reporter.(nopReporter)
	assert.True(t, isNop)
}
