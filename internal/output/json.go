package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONL writes one JSON object per row, keyed by the header fields
type JSONL struct {
	file   io.WriteCloser
	buf    *bufio.Writer
	header []string
}

// NewJSONL wraps w
func NewJSONL(w io.WriteCloser) *JSONL {
	return &JSONL{file: w, buf: bufio.NewWriter(w)}
}

// WriteHeader records the keys; nothing is written
func (j *JSONL) WriteHeader(fields []string) error {
	j.header = append([]string(nil), fields...)
	return nil
}

func (j *JSONL) WriteRow(fields []string) error {
	if len(j.header) == 0 {
		j.header = Header
	}
	if len(fields) != len(j.header) {
		return fmt.Errorf("row has %d fields, header has %d", len(fields), len(j.header))
	}
	obj := make(map[string]string, len(fields))
	for i, k := range j.header {
		obj[k] = fields[i]
	}
	line, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if _, err := j.buf.Write(append(line, '\n')); err != nil {
		return err
	}
	return j.buf.Flush()
}

func (j *JSONL) Close() error {
	if err := j.buf.Flush(); err != nil {
		j.file.Close()
		return err
	}
	return j.file.Close()
}
