package store

import (
	"context"
	"time"

	"github.com/cognicore/tweeteater/pkg/tweeteater/table"
)

// Store is the output sink for a run's post and engagement tables
type Store interface {
	Close() error

	// Tables
	WritePosts(ctx context.Context, runID string, posts *table.Posts) error
	WriteEngagements(ctx context.Context, runID string, engagements *table.Engagements) error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	ListRuns(ctx context.Context) ([]Run, error)
}

// Run summarises one end-to-end run
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Files       int
	Records     int
	Posts       int
	Engagements int
	Duplicates  int
	Skipped     int
	StatsJSON   string
}

// PostFields returns the post row as column → value, with nil for
// missing values. Used by stores that keep attributes as a document.
func PostFields(posts *table.Posts, row table.Post) map[string]any {
	header := posts.Header()
	cells := posts.Cells(row)
	out := make(map[string]any, len(header)-2)
	for i, v := range row.Values {
		col := header[i+2]
		if v.Missing() {
			out[col] = nil
			continue
		}
		out[col] = cells[i+2]
	}
	return out
}
