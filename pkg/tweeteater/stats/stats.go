package stats

import (
	"sort"

	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/engagement"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// Collector aggregates label and engagement counts over a run.
type Collector struct {
	posts       int64
	engagements int64
	labels      map[classify.Label]int64
	kinds       map[engagement.Kind]int64
	actions     map[record.ID]int64 // in-sample actions per target
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		labels:  make(map[classify.Label]int64),
		kinds:   make(map[engagement.Kind]int64),
		actions: make(map[record.ID]int64),
	}
}

// ObservePost counts one kept post. A multi-label post counts once per label.
func (c *Collector) ObservePost(labels classify.LabelSet) {
	c.posts++
	for l := range labels {
		c.labels[l]++
	}
}

// ObserveEngagement counts one kept engagement row.
func (c *Collector) ObserveEngagement(t engagement.Tuple) {
	c.engagements++
	c.kinds[t.Kind]++
	switch t.Kind {
	case engagement.Retweet, engagement.Quote, engagement.Reply:
		c.actions[t.TargetID]++
	}
}

// Stats is an immutable snapshot of a Collector.
type Stats struct {
	Posts       int64            `json:"posts"`
	Engagements int64            `json:"engagements"`
	Labels      map[string]int64 `json:"labels"`
	Kinds       map[string]int64 `json:"kinds"`
	Targets     int              `json:"engaged_targets"`

	actions map[record.ID]int64
}

// Snapshot copies the current counts.
func (c *Collector) Snapshot() Stats {
	s := Stats{
		Posts:       c.posts,
		Engagements: c.engagements,
		Labels:      make(map[string]int64, len(c.labels)),
		Kinds:       make(map[string]int64, len(c.kinds)),
		Targets:     len(c.actions),
		actions:     make(map[record.ID]int64, len(c.actions)),
	}
	for l, n := range c.labels {
		s.Labels[string(l)] = n
	}
	for k, n := range c.kinds {
		s.Kinds[string(k)] = n
	}
	for id, n := range c.actions {
		s.actions[id] = n
	}
	return s
}

// TargetCount is a tracked post with its in-sample action count.
type TargetCount struct {
	ID      record.ID `json:"id"`
	Actions int64     `json:"actions"`
}

// TopTargets returns the k most engaged posts, ties broken by id.
func (s Stats) TopTargets(k int) []TargetCount {
	out := make([]TargetCount, 0, len(s.actions))
	for id, n := range s.actions {
		out = append(out, TargetCount{ID: id, Actions: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Actions != out[j].Actions {
			return out[i].Actions > out[j].Actions
		}
		return out[i].ID < out[j].ID
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
