package sink

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/thinkingdata-korea/demo-data-generator/internal/sim"
)

// Writer splits a record stream into per-day files named
// logs_YYYY-MM-DD.jsonl under a single output directory. Records must
// arrive in chronological order; the writer never reopens a day's file.
type Writer struct {
	dir     string
	files   map[string]*os.File
	bufs    map[string]*bufio.Writer
	written map[string]int
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{
		dir:     dir,
		files:   make(map[string]*os.File),
		bufs:    make(map[string]*bufio.Writer),
		written: make(map[string]int),
	}, nil
}

// Write appends one record to its day's file.
func (w *Writer) Write(rec sim.Record) error {
	day := rec.Time.Format("2006-01-02")
	buf, ok := w.bufs[day]
	if !ok {
		path := filepath.Join(w.dir, "logs_"+day+".jsonl")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		w.files[day] = f
		buf = bufio.NewWriter(f)
		w.bufs[day] = buf
	}

	line, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if _, err := buf.Write(line); err != nil {
		return err
	}
	if err := buf.WriteByte('\n'); err != nil {
		return err
	}
	w.written[day]++
	return nil
}

// WriteAll streams a whole run to disk.
func (w *Writer) WriteAll(records []sim.Record) error {
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Files returns the day keys written so far, sorted.
func (w *Writer) Files() []string {
	days := make([]string, 0, len(w.written))
	for day := range w.written {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// Close flushes and closes every open file. Safe to call once.
func (w *Writer) Close() error {
	var firstErr error
	for day, buf := range w.bufs {
		if err := buf.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := w.files[day].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, day := range w.Files() {
		slog.Debug("wrote output file",
			"file", "logs_"+day+".jsonl", "records", w.written[day])
	}
	return firstErr
}
