package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/tweeteater/pkg/tweeteater/store"
	"github.com/cognicore/tweeteater/pkg/tweeteater/table"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu          sync.RWMutex
	posts       map[string][][]string
	engagements map[string][][]string
	runs        map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		posts:       make(map[string][][]string),
		engagements: make(map[string][][]string),
		runs:        make(map[string]store.Run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// WritePosts stores the rendered post rows of a run, header first.
func (s *Store) WritePosts(ctx context.Context, runID string, posts *table.Posts) error {
	rows := [][]string{posts.Header()}
	for _, row := range posts.Rows() {
		rows = append(rows, posts.Cells(row))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[runID] = rows
	return nil
}

// WriteEngagements stores the rendered engagement rows of a run, header first.
func (s *Store) WriteEngagements(ctx context.Context, runID string, engagements *table.Engagements) error {
	rows := [][]string{append([]string(nil), table.EngagementHeader...)}
	for _, row := range engagements.Rows() {
		rows = append(rows, engagements.Cells(row))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.engagements[runID] = rows
	return nil
}

// SaveRun records a run summary.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return nil
}

// ListRuns returns runs ordered by id; ULIDs sort by creation time.
func (s *Store) ListRuns(ctx context.Context) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Posts returns the stored post rows of a run, header first.
func (s *Store) Posts(runID string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.posts[runID]
}

// Engagements returns the stored engagement rows of a run, header first.
func (s *Store) Engagements(runID string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engagements[runID]
}
