package tweeteater

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/tweeteater/pkg/tweeteater/attributes"
	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/internalerr"
	"github.com/cognicore/tweeteater/pkg/tweeteater/loader"
	"github.com/cognicore/tweeteater/pkg/tweeteater/pipeline"
	"github.com/cognicore/tweeteater/pkg/tweeteater/stats"
	"github.com/cognicore/tweeteater/pkg/tweeteater/store"
	"github.com/cognicore/tweeteater/pkg/tweeteater/table"
)

// Eater runs the two-pass "tweets then engagements" extraction and writes
// the resulting tables to a store.
type Eater struct {
	store    store.Store
	loader   *loader.Loader
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	metrics  *stats.Metrics

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// Options configures an Eater. Metrics is optional and updated after
// every successful run.
type Options struct {
	Store   store.Store
	Loader  *loader.Loader
	Logger  *slog.Logger
	Metrics *stats.Metrics
}

// New creates an Eater with the given dependencies
func New(opts Options) *Eater {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	l := opts.Loader
	if l == nil {
		l = loader.New(loader.Options{Logger: logger})
	}
	return &Eater{
		store:    opts.Store,
		loader:   l,
		pipeline: pipeline.New(l),
		logger:   logger,
		metrics:  opts.Metrics,
		entropy:  ulid.Monotonic(rand.Reader, 0),
		now:      time.Now,
	}
}

// Close cleanly shuts down the store
func (e *Eater) Close() error {
	return e.store.Close()
}

// Pipeline exposes the underlying single-pass pipelines.
func (e *Eater) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

// Selection decides which posts a run keeps and what it extracts from them.
type Selection struct {
	// Keep retains posts carrying any of these labels. Nil keeps all.
	Keep classify.LabelSet
	// Filter is applied before classification. Nil keeps all.
	Filter pipeline.Predicate
	// Paths are the attribute columns. Empty means attributes.Defaults.
	Paths attributes.Paths
	// StripHTML names attribute columns rendered as plain text.
	StripHTML []string
}

// Summary describes a finished run
type Summary struct {
	RunID       string
	Files       int
	Records     int
	Posts       int
	Engagements int
	Duplicates  int
	Skipped     int
	Stats       stats.Stats
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Run reads files twice: the first pass keeps the selected posts, the
// second extracts engagements towards them. Both tables and the run
// summary are written to the store under a fresh run id.
func (e *Eater) Run(ctx context.Context, files []string, sel Selection) (Summary, error) {
	sum := Summary{
		RunID:     e.newRunID(),
		Files:     len(files),
		StartedAt: e.now(),
	}
	log := e.logger.With("run", sum.RunID)
	col := stats.NewCollector()

	readBefore, skippedBefore := e.loader.Read(), e.loader.Skipped()
	log.Info("eating tweets", "files", len(files))
	posts, err := e.eatTweets(ctx, files, sel, col)
	if err != nil {
		return sum, fmt.Errorf("eat tweets: %w", err)
	}
	sum.Records = e.loader.Read() - readBefore
	sum.Skipped = e.loader.Skipped() - skippedBefore
	log.Info("tweets eaten", "records", sum.Records, "posts", posts.Len(), "duplicates", posts.Duplicates())

	log.Info("eating engagements", "tracked", posts.Len())
	engagements, err := e.eatEngagements(ctx, files, posts, col)
	if err != nil {
		return sum, fmt.Errorf("eat engagements: %w", err)
	}
	log.Info("engagements eaten", "rows", engagements.Len(), "duplicates", engagements.Duplicates())

	if err := e.store.WritePosts(ctx, sum.RunID, posts); err != nil {
		return sum, fmt.Errorf("%w: write posts: %w", internalerr.ErrStoreUnavailable, err)
	}
	if err := e.store.WriteEngagements(ctx, sum.RunID, engagements); err != nil {
		return sum, fmt.Errorf("%w: write engagements: %w", internalerr.ErrStoreUnavailable, err)
	}

	sum.Posts = posts.Len()
	sum.Engagements = engagements.Len()
	sum.Duplicates = posts.Duplicates() + engagements.Duplicates()
	sum.Stats = col.Snapshot()
	sum.FinishedAt = e.now()

	statsJSON, err := json.Marshal(sum.Stats)
	if err != nil {
		return sum, fmt.Errorf("encode stats: %w", err)
	}
	run := store.Run{
		ID:          sum.RunID,
		StartedAt:   sum.StartedAt,
		FinishedAt:  sum.FinishedAt,
		Files:       sum.Files,
		Records:     sum.Records,
		Posts:       sum.Posts,
		Engagements: sum.Engagements,
		Duplicates:  sum.Duplicates,
		Skipped:     sum.Skipped,
		StatsJSON:   string(statsJSON),
	}
	if err := e.store.SaveRun(ctx, run); err != nil {
		return sum, fmt.Errorf("%w: save run: %w", internalerr.ErrStoreUnavailable, err)
	}

	if e.metrics != nil {
		e.metrics.Observe(sum.Stats, stats.RunInfo{
			Records:    sum.Records,
			Skipped:    sum.Skipped,
			Duplicates: sum.Duplicates,
			StartedAt:  sum.StartedAt,
			FinishedAt: sum.FinishedAt,
		})
	}

	log.Info("run finished", "posts", sum.Posts, "engagements", sum.Engagements,
		"elapsed", sum.FinishedAt.Sub(sum.StartedAt))
	return sum, nil
}

// Runs lists the runs recorded in the store.
func (e *Eater) Runs(ctx context.Context) ([]store.Run, error) {
	runs, err := e.store.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %w", internalerr.ErrStoreUnavailable, err)
	}
	return runs, nil
}

func (e *Eater) eatTweets(ctx context.Context, files []string, sel Selection, col *stats.Collector) (*table.Posts, error) {
	paths := sel.Paths
	if len(paths) == 0 {
		paths = attributes.MustParsePaths(attributes.Defaults...)
	}
	posts := table.NewPosts(paths, sel.StripHTML)

	q := pipeline.TweetQuery{Keep: sel.Keep, Filter: sel.Filter, Paths: paths}
	for row, err := range e.pipeline.Tweets(files, q) {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if posts.Add(row) {
			col.ObservePost(row.Labels)
		}
	}
	return posts, nil
}

func (e *Eater) eatEngagements(ctx context.Context, files []string, posts *table.Posts, col *stats.Collector) (*table.Engagements, error) {
	engagements := table.NewEngagements(posts)
	ids := posts.IDs()
	if len(ids) == 0 {
		return engagements, nil
	}

	for t, err := range e.pipeline.ExtractEngagements(files, ids) {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if engagements.Add(t) {
			col.ObserveEngagement(t)
		}
	}
	return engagements, nil
}

func (e *Eater) newRunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(e.now()), e.entropy).String()
}
