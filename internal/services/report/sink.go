package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// WriterSink writes reports to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w (stdout when nil).
func NewWriterSink(w io.Writer) *WriterSink {
	if w == nil {
		w = os.Stdout
	}
	return &WriterSink{w: w}
}

// Deliver writes the report followed by a newline.
func (s *WriterSink) Deliver(ctx context.Context, report string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, report+"\n"); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// FileSink replaces the contents of a file with each report.
type FileSink struct {
	path string
}

// NewFileSink creates a sink for path; parent directories are created on delivery.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Deliver writes the report to the file.
func (s *FileSink) Deliver(ctx context.Context, report string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(report+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write report file %s: %w", s.path, err)
	}
	return nil
}
