// Package output writes harvested records to a flat file, one row at a time.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/law-makers/shelfscan/pkg/models"
)

// Header is the column layout of every export
var Header = []string{"No", "Product Name", "Price", "Image URL"}

// Sink receives a header once and then rows in sequence order. Rows must
// be durable once WriteRow returns so an aborted run keeps what it wrote.
type Sink interface {
	WriteHeader(fields []string) error
	WriteRow(fields []string) error
	Close() error
}

// Fields renders rec in Header order
func Fields(rec models.ProductRecord) []string {
	return []string{strconv.Itoa(rec.Seq), rec.Name, rec.Price, rec.ImageURL}
}

// Open creates a sink for path. The format follows the extension: .jsonl
// and .ndjson write JSON lines, anything else CSV. "-" writes CSV to stdout.
func Open(path string) (Sink, error) {
	if path == "-" {
		return NewCSV(nopCloser{os.Stdout}), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return NewJSONL(file), nil
	default:
		return NewCSV(file), nil
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Memory keeps rows in memory
type Memory struct {
	mu     sync.Mutex
	Head   []string
	Rows   [][]string
	Closed bool
}

func (m *Memory) WriteHeader(fields []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Head = append([]string(nil), fields...)
	return nil
}

func (m *Memory) WriteRow(fields []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return fmt.Errorf("sink is closed")
	}
	m.Rows = append(m.Rows, append([]string(nil), fields...))
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
