package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/engagement"
)

func TestMetricsTextfile(t *testing.T) {
	c := NewCollector()
	c.ObservePost(classify.NewLabelSet(classify.Original))
	c.ObservePost(classify.NewLabelSet(classify.Original))
	c.ObserveEngagement(engagement.Tuple{TargetID: "1", Kind: engagement.Retweet})

	start := time.Unix(1700000000, 0)
	m := NewMetrics()
	m.Observe(c.Snapshot(), RunInfo{
		Records:    10,
		Skipped:    1,
		Duplicates: 2,
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	})

	path := filepath.Join(t.TempDir(), "tweeteater.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	for _, want := range []string{
		"tweeteater_posts 2",
		"tweeteater_engagements 1",
		`tweeteater_posts_by_label{label="original"} 2`,
		`tweeteater_engagements_by_kind{kind="retweet"} 1`,
		"tweeteater_records_read 10",
		"tweeteater_malformed_lines_skipped 1",
		"tweeteater_run_duration_seconds 3",
		"tweeteater_engaged_targets 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestMetricsObserveResetsVectors(t *testing.T) {
	m := NewMetrics()

	first := NewCollector()
	first.ObservePost(classify.NewLabelSet(classify.Quote))
	m.Observe(first.Snapshot(), RunInfo{})

	second := NewCollector()
	second.ObservePost(classify.NewLabelSet(classify.Original))
	m.Observe(second.Snapshot(), RunInfo{})

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "tweeteater_posts_by_label" {
			continue
		}
		if len(f.GetMetric()) != 1 {
			t.Errorf("expected only the latest run's label, got %d series", len(f.GetMetric()))
		}
	}
}
