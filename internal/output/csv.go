package output

import (
	"encoding/csv"
	"io"
)

// CSV writes comma-separated rows and flushes after each one
type CSV struct {
	file   io.WriteCloser
	writer *csv.Writer
}

// NewCSV wraps w
func NewCSV(w io.WriteCloser) *CSV {
	return &CSV{file: w, writer: csv.NewWriter(w)}
}

func (c *CSV) WriteHeader(fields []string) error {
	return c.WriteRow(fields)
}

func (c *CSV) WriteRow(fields []string) error {
	if err := c.writer.Write(fields); err != nil {
		return err
	}
	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSV) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}
