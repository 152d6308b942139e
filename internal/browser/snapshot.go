// internal/browser/snapshot.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ManifestFile is the index written next to captured pages
const ManifestFile = "manifest.json"

// ManifestEntry maps one captured URL to its file
type ManifestEntry struct {
	URL        string    `json:"url"`
	File       string    `json:"file"`
	CapturedAt time.Time `json:"captured_at"`
}

// Manifest indexes a snapshot directory
type Manifest struct {
	Pages []ManifestEntry `json:"pages"`
}

// ReadManifest loads dir/manifest.json
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot manifest: %w", err)
	}
	return &m, nil
}

// Load reads every captured file. A URL captured more than once keeps its
// latest capture.
func (m *Manifest) Load(dir string) (map[string]string, error) {
	pages := make(map[string]string, len(m.Pages))
	for _, e := range m.Pages {
		body, err := os.ReadFile(filepath.Join(dir, e.File))
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot %s: %w", e.File, err)
		}
		pages[e.URL] = string(body)
	}
	return pages, nil
}

// Recorder captures the current page of a driver into a directory that
// LoadStatic can replay.
type Recorder struct {
	dir      string
	mu       sync.Mutex
	manifest Manifest
}

// NewRecorder prepares dir for captures
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Recorder{dir: dir}, nil
}

// Capture writes the driver's current document and updates the manifest.
func (r *Recorder) Capture(ctx context.Context, d Driver) error {
	u, err := d.CurrentURL(ctx)
	if err != nil {
		return err
	}
	body, err := d.Snapshot(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := fmt.Sprintf("page-%03d.html", len(r.manifest.Pages)+1)
	if err := os.WriteFile(filepath.Join(r.dir, name), []byte(body), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	r.manifest.Pages = append(r.manifest.Pages, ManifestEntry{URL: u, File: name, CapturedAt: time.Now().UTC()})

	data, err := json.MarshalIndent(r.manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(r.dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot manifest: %w", err)
	}
	log.Debug().Str("url", u).Str("file", name).Msg("Captured page")
	return nil
}

// Len returns the number of captures so far
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.manifest.Pages)
}
