package table

import (
	"github.com/cognicore/tweeteater/pkg/tweeteater/engagement"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// Columns of the post table joined onto each engagement row.
const (
	ScreenNameColumn = "user.screen_name"
	CreatedAtColumn  = "created_at"
)

// EngagementHeader is the engagement table header.
var EngagementHeader = []string{
	"engagement_created_at",
	"engagement_id",
	"engagement_screen_name",
	"original_tweet_id",
	"engagement_type",
	"engagement_count",
	"original_tweet_screen_name",
	"original_tweet_created_at",
}

// Engagement is a tuple joined with its target post.
type Engagement struct {
	engagement.Tuple
	TargetHandle    record.Value
	TargetCreatedAt record.Value
}

type engagementKey struct {
	id     record.ID
	target record.ID
	kind   engagement.Kind
}

// Engagements is the engagement table, deduplicated by
// (originating id, target id, kind), first seen wins.
type Engagements struct {
	posts      *Posts
	rows       []Engagement
	seen       map[engagementKey]struct{}
	duplicates int
}

// NewEngagements creates a table joining against posts.
func NewEngagements(posts *Posts) *Engagements {
	return &Engagements{
		posts: posts,
		seen:  make(map[engagementKey]struct{}),
	}
}

// Add joins and inserts t unless its key was already seen.
func (e *Engagements) Add(t engagement.Tuple) bool {
	key := engagementKey{id: t.ID, target: t.TargetID, kind: t.Kind}
	if _, ok := e.seen[key]; ok {
		e.duplicates++
		return false
	}
	e.seen[key] = struct{}{}

	row := Engagement{Tuple: t, TargetHandle: record.Missing, TargetCreatedAt: record.Missing}
	if e.posts != nil {
		row.TargetHandle = e.posts.Value(t.TargetID, ScreenNameColumn)
		row.TargetCreatedAt = e.posts.Value(t.TargetID, CreatedAtColumn)
	}
	e.rows = append(e.rows, row)
	return true
}

// Len returns the number of kept rows.
func (e *Engagements) Len() int { return len(e.rows) }

// Duplicates returns how many tuples were dropped as repeats.
func (e *Engagements) Duplicates() int { return e.duplicates }

// Rows returns the kept rows in first-seen order.
func (e *Engagements) Rows() []Engagement { return e.rows }

// Cells renders a row aligned with EngagementHeader.
func (e *Engagements) Cells(row Engagement) []string {
	return []string{
		row.CreatedAt.String(),
		string(row.ID),
		row.Handle.String(),
		string(row.TargetID),
		string(row.Kind),
		row.Count.String(),
		row.TargetHandle.String(),
		row.TargetCreatedAt.String(),
	}
}
