package tweeteater

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/tweeteater/pkg/tweeteater/attributes"
	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/internalerr"
	"github.com/cognicore/tweeteater/pkg/tweeteater/loader"
	"github.com/cognicore/tweeteater/pkg/tweeteater/pipeline"
	"github.com/cognicore/tweeteater/pkg/tweeteater/stats"
	"github.com/cognicore/tweeteater/pkg/tweeteater/store/memstore"
)

const day1 = `{"id":10,"created_at":"Mon","user":{"screen_name":"alice","name":"Alice"},"text":"hello","source":"<a href=\"https://example.com\">Web App</a>","in_reply_to_status_id":null}
{"id":11,"created_at":"Mon","user":{"screen_name":"bob"},"text":"RT","retweeted_status":{"id":10,"favorite_count":5,"retweet_count":2},"in_reply_to_status_id":null}
{"id":12,"created_at":"Mon","user":{"screen_name":"carol"},"text":"@alice hi","in_reply_to_status_id":10}
`

const day2 = `{"id":20,"created_at":"Tue","user":{"screen_name":"dave"},"text":"news","in_reply_to_status_id":null}
{"id":21,"created_at":"Tue","user":{"screen_name":"erin"},"text":"look","quoted_status":{"id":10,"favorite_count":9,"retweet_count":4},"in_reply_to_status_id":20}
{"id":10,"created_at":"Mon","user":{"screen_name":"mallory"},"text":"hello","in_reply_to_status_id":null}
`

func writeCorpus(t *testing.T, contents ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var files []string
	for i, content := range contents {
		path := filepath.Join(dir, "day"+string(rune('1'+i))+".jsonl")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		files = append(files, path)
	}
	return files
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	metrics := stats.NewMetrics()
	eater := New(Options{Store: st, Metrics: metrics})
	defer eater.Close()

	files := writeCorpus(t, day1, day2)
	sel := Selection{
		Keep:      classify.NewLabelSet(classify.Original),
		Paths:     attributes.MustParsePaths("created_at", "user.screen_name", "source"),
		StripHTML: []string{"source"},
	}

	sum, err := eater.Run(ctx, files, sel)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.RunID == "" || sum.Files != 2 || sum.Records != 6 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Posts != 2 || sum.Engagements != 8 || sum.Duplicates != 1 {
		t.Errorf("posts=%d engagements=%d duplicates=%d", sum.Posts, sum.Engagements, sum.Duplicates)
	}
	if sum.Stats.Kinds["reply"] != 2 || sum.Stats.Kinds["favourite_count"] != 2 || sum.Stats.Targets != 2 {
		t.Errorf("stats = %+v", sum.Stats)
	}

	posts := st.Posts(sum.RunID)
	if len(posts) != 3 {
		t.Fatalf("posts rows = %v", posts)
	}
	// first-seen row for id 10 wins and its source is plain text
	if posts[1][0] != "10" || posts[1][3] != "alice" || posts[1][4] != "Web App" {
		t.Errorf("post row = %v", posts[1])
	}

	engs := st.Engagements(sum.RunID)
	if len(engs) != 9 {
		t.Fatalf("engagement rows = %d, want 9", len(engs))
	}
	var sawReplyToDave bool
	for _, row := range engs[1:] {
		if row[4] == "reply" && row[3] == "20" {
			sawReplyToDave = true
			if row[2] != "erin" || row[6] != "dave" || row[7] != "Tue" {
				t.Errorf("joined reply row = %v", row)
			}
		}
	}
	if !sawReplyToDave {
		t.Error("missing reply engagement towards 20")
	}

	runs, err := eater.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != sum.RunID || runs[0].Posts != 2 {
		t.Fatalf("runs = %+v", runs)
	}
	families, err := metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var sawPosts bool
	for _, f := range families {
		if f.GetName() == "tweeteater_posts" {
			sawPosts = f.GetMetric()[0].GetGauge().GetValue() == 2
		}
	}
	if !sawPosts {
		t.Error("metrics should report 2 posts")
	}

	var saved stats.Stats
	if err := json.Unmarshal([]byte(runs[0].StatsJSON), &saved); err != nil {
		t.Fatalf("stats json: %v", err)
	}
	if saved.Labels["original"] != 2 {
		t.Errorf("saved stats = %+v", saved)
	}
}

func TestRunFilterAndDistinctIDs(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	eater := New(Options{Store: st})

	files := writeCorpus(t, day1, day2)
	sel := Selection{
		Keep:   classify.NewLabelSet(classify.Original),
		Filter: pipeline.AuthorIn(map[string]struct{}{"dave": {}}),
	}

	first, err := eater.Run(ctx, files, sel)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.Posts != 1 || first.Engagements != 1 {
		t.Errorf("posts=%d engagements=%d", first.Posts, first.Engagements)
	}
	if got := st.Posts(first.RunID)[0]; len(got) != 2+len(attributes.Defaults) {
		t.Errorf("default header = %v", got)
	}

	second, err := eater.Run(ctx, files, sel)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if second.RunID <= first.RunID {
		t.Errorf("run ids should increase: %s then %s", first.RunID, second.RunID)
	}
}

func TestRunNoPostsSkipsEngagements(t *testing.T) {
	st := memstore.New()
	eater := New(Options{Store: st})

	files := writeCorpus(t, day1)
	sel := Selection{Filter: pipeline.AuthorIn(map[string]struct{}{"nobody": {}})}

	sum, err := eater.Run(context.Background(), files, sel)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Posts != 0 || sum.Engagements != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if rows := st.Engagements(sum.RunID); len(rows) != 1 {
		t.Errorf("expected header only, got %v", rows)
	}
}

func TestRunMalformedLine(t *testing.T) {
	files := writeCorpus(t, day1+"{not json\n")

	st := memstore.New()
	eater := New(Options{Store: st})
	if _, err := eater.Run(context.Background(), files, Selection{}); !errors.Is(err, internalerr.ErrMalformedLine) {
		t.Fatalf("expected ErrMalformedLine, got %v", err)
	}
	if runs, _ := st.ListRuns(context.Background()); len(runs) != 0 {
		t.Errorf("failed run should not be recorded, got %v", runs)
	}

	skipping := New(Options{Store: st, Loader: loader.New(loader.Options{Policy: loader.SkipAndCount})})
	sum, err := skipping.Run(context.Background(), files, Selection{})
	if err != nil {
		t.Fatalf("Run with skip policy: %v", err)
	}
	if sum.Skipped != 1 || sum.Records != 3 {
		t.Errorf("skipped=%d records=%d", sum.Skipped, sum.Records)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eater := New(Options{Store: memstore.New()})
	_, err := eater.Run(ctx, writeCorpus(t, day1), Selection{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
