package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cognicore/tweeteater/pkg/tweeteater/store"
	"github.com/cognicore/tweeteater/pkg/tweeteater/table"
)

// File names written into the output directory.
const (
	PostsFile       = "tweets.csv"
	EngagementsFile = "engagements.csv"
	RunsFile        = "runs.csv"
)

var runsHeader = []string{
	"run_id", "started_at", "finished_at", "files", "records",
	"posts", "engagements", "duplicates", "skipped", "stats",
}

// Store writes each table to its own CSV file in a directory. Post and
// engagement files are rewritten on every run; runs.csv is appended to.
type Store struct {
	dir string
}

// Open creates dir if needed and returns a store writing into it.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("csvstore: output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// WritePosts writes tweets.csv.
func (s *Store) WritePosts(ctx context.Context, runID string, posts *table.Posts) error {
	rows := posts.Rows()
	return s.writeFile(PostsFile, posts.Header(), len(rows), func(i int) []string {
		return posts.Cells(rows[i])
	})
}

// WriteEngagements writes engagements.csv.
func (s *Store) WriteEngagements(ctx context.Context, runID string, engagements *table.Engagements) error {
	rows := engagements.Rows()
	return s.writeFile(EngagementsFile, table.EngagementHeader, len(rows), func(i int) []string {
		return engagements.Cells(rows[i])
	})
}

func (s *Store) writeFile(name string, header []string, n int, row func(int) []string) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// SaveRun appends the run to runs.csv, writing the header on first use.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	path := filepath.Join(s.dir, RunsFile)
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(runsHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(encodeRun(r)); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ListRuns reads runs.csv in file order.
func (s *Store) ListRuns(ctx context.Context) ([]store.Run, error) {
	path := filepath.Join(s.dir, RunsFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = len(runsHeader)
	var runs []store.Run
	for line := 1; ; line++ {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if line == 1 {
			continue
		}
		r, err := decodeRun(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		runs = append(runs, r)
	}
	return runs, nil
}

func encodeRun(r store.Run) []string {
	return []string{
		r.ID,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		strconv.Itoa(r.Files),
		strconv.Itoa(r.Records),
		strconv.Itoa(r.Posts),
		strconv.Itoa(r.Engagements),
		strconv.Itoa(r.Duplicates),
		strconv.Itoa(r.Skipped),
		r.StatsJSON,
	}
}

func decodeRun(rec []string) (store.Run, error) {
	r := store.Run{ID: rec[0], StatsJSON: rec[9]}
	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, rec[1]); err != nil {
		return r, fmt.Errorf("started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, rec[2]); err != nil {
		return r, fmt.Errorf("finished_at: %w", err)
	}
	ints := []*int{&r.Files, &r.Records, &r.Posts, &r.Engagements, &r.Duplicates, &r.Skipped}
	for i, dst := range ints {
		n, err := strconv.Atoi(rec[3+i])
		if err != nil {
			return r, fmt.Errorf("%s: %w", runsHeader[3+i], err)
		}
		*dst = n
	}
	return r, nil
}
