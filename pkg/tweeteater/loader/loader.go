package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/cognicore/tweeteater/pkg/tweeteater/internalerr"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// ErrorPolicy decides what happens to a line that is not valid JSON.
type ErrorPolicy int

const (
	// FailFast stops the sequence with an ErrMalformedLine error.
	FailFast ErrorPolicy = iota
	// SkipAndCount logs the line, counts it and carries on.
	SkipAndCount
)

// ParsePolicy maps a config value to an ErrorPolicy.
func ParsePolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "fail":
		return FailFast, nil
	case "skip":
		return SkipAndCount, nil
	default:
		return FailFast, fmt.Errorf("%w: unknown malformed-line policy %q", internalerr.ErrInvalidConfig, s)
	}
}

// ProgressFunc is called after each file has been fully read.
type ProgressFunc func(done, total int, path string)

// Options configures a Loader.
type Options struct {
	Policy   ErrorPolicy
	Progress ProgressFunc
	Logger   *slog.Logger
}

// Loader reads JSON-lines files into records.
type Loader struct {
	opts    Options
	read    int
	skipped int
}

// New creates a loader.
func New(opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{opts: opts}
}

// Read returns how many records have been decoded across all passes.
func (l *Loader) Read() int {
	return l.read
}

// Skipped returns how many malformed lines were dropped under SkipAndCount.
func (l *Loader) Skipped() int {
	return l.skipped
}

// Records returns a lazy sequence over every record of every file, in
// order, one file fully before the next. Files are opened only when the
// consumer reaches them and closed as soon as it stops pulling. Each call
// starts a fresh pass.
func (l *Loader) Records(files []string) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		for i, path := range files {
			if !l.readFile(path, yield) {
				return
			}
			if l.opts.Progress != nil {
				l.opts.Progress(i+1, len(files), path)
			}
		}
	}
}

// readFile streams one file; it returns false when the sequence must stop.
func (l *Loader) readFile(path string, yield func(record.Record, error) bool) bool {
	f, err := os.Open(path)
	if err != nil {
		yield(nil, fmt.Errorf("open %s: %w", path, err))
		return false
	}
	defer f.Close()

	rd := bufio.NewReaderSize(f, 64*1024)
	lineNo := 0
	for {
		line, readErr := rd.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if !l.emit(path, lineNo, line, yield) {
				return false
			}
		}
		if readErr == io.EOF {
			return true
		}
		if readErr != nil {
			yield(nil, fmt.Errorf("read %s: %w", path, readErr))
			return false
		}
	}
}

func (l *Loader) emit(path string, lineNo int, line []byte, yield func(record.Record, error) bool) bool {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return true
	}

	r, err := record.Decode(line)
	if err == nil {
		l.read++
		return yield(r, nil)
	}
	if l.opts.Policy == SkipAndCount {
		l.skipped++
		l.opts.Logger.Warn("skipping malformed line", "file", path, "line", lineNo, "error", err)
		return true
	}
	yield(nil, fmt.Errorf("%s:%d: %w: %w", path, lineNo, internalerr.ErrMalformedLine, err))
	return false
}
