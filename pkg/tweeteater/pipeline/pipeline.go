package pipeline

import (
	"iter"

	"github.com/cognicore/tweeteater/pkg/tweeteater/attributes"
	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/engagement"
	"github.com/cognicore/tweeteater/pkg/tweeteater/loader"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// Pipeline composes the loader, classifier and extractors into single
// forward passes over a list of files:
// load → filter → classify → keep by label → project or extract
type Pipeline struct {
	loader *loader.Loader
}

// New creates a pipeline reading through l.
func New(l *loader.Loader) *Pipeline {
	return &Pipeline{loader: l}
}

// TypeRow is one result of ListTypes.
type TypeRow struct {
	ID     record.ID
	Labels classify.LabelSet
}

// AttributeRow is one result of ExtractAttributes.
type AttributeRow struct {
	ID     record.ID
	Values []record.Value
}

// PostRow is one result of Tweets: id and labels followed by the
// projected attributes.
type PostRow struct {
	ID     record.ID
	Labels classify.LabelSet
	Values []record.Value
}

// TypeQuery selects records for ListTypes.
type TypeQuery struct {
	// Keep retains records whose labels intersect it. A nil set keeps
	// every record; an empty non-nil set keeps none.
	Keep   classify.LabelSet
	Filter Predicate
}

// TweetQuery selects and projects records for Tweets.
type TweetQuery struct {
	Keep   classify.LabelSet
	Filter Predicate
	Paths  attributes.Paths
}

// ListTypes yields the id and label set of every kept record.
func (p *Pipeline) ListTypes(files []string, q TypeQuery) iter.Seq2[TypeRow, error] {
	return func(yield func(TypeRow, error) bool) {
		for c, err := range p.classified(files, q.Filter, q.Keep) {
			if err != nil {
				yield(TypeRow{}, err)
				return
			}
			id, _ := c.Record.ID()
			if !yield(TypeRow{ID: id, Labels: c.Labels}, nil) {
				return
			}
		}
	}
}

// ExtractAttributes yields the projection of every record whose id is in ids.
func (p *Pipeline) ExtractAttributes(files []string, ids engagement.IDSet, paths attributes.Paths) iter.Seq2[AttributeRow, error] {
	return func(yield func(AttributeRow, error) bool) {
		for r, err := range p.loader.Records(files) {
			if err != nil {
				yield(AttributeRow{}, err)
				return
			}
			id, ok := r.ID()
			if !ok || !ids.Has(id) {
				continue
			}
			if !yield(AttributeRow{ID: id, Values: attributes.Project(r, paths)}, nil) {
				return
			}
		}
	}
}

// ExtractEngagements yields the engagement tuples every record holds
// towards ids, flattened in record order.
func (p *Pipeline) ExtractEngagements(files []string, ids engagement.IDSet) iter.Seq2[engagement.Tuple, error] {
	return func(yield func(engagement.Tuple, error) bool) {
		for c, err := range p.classified(files, nil, nil) {
			if err != nil {
				yield(engagement.Tuple{}, err)
				return
			}
			for _, t := range engagement.Extract(c.Record, c.Labels, ids) {
				if !yield(t, nil) {
					return
				}
			}
		}
	}
}

// Tweets filters, classifies, keeps by label and projects in one pass.
func (p *Pipeline) Tweets(files []string, q TweetQuery) iter.Seq2[PostRow, error] {
	return func(yield func(PostRow, error) bool) {
		for c, err := range p.classified(files, q.Filter, q.Keep) {
			if err != nil {
				yield(PostRow{}, err)
				return
			}
			id, _ := c.Record.ID()
			row := PostRow{
				ID:     id,
				Labels: c.Labels,
				Values: attributes.Project(c.Record, q.Paths),
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// classified is the shared load → filter → classify → keep stage.
func (p *Pipeline) classified(files []string, filter Predicate, keep classify.LabelSet) iter.Seq2[classify.Classified, error] {
	if filter == nil {
		filter = All
	}
	if keep == nil {
		keep = classify.All()
	}
	return func(yield func(classify.Classified, error) bool) {
		for r, err := range p.loader.Records(files) {
			if err != nil {
				yield(classify.Classified{}, err)
				return
			}
			if !filter(r) {
				continue
			}
			c := classify.Of(r)
			if !c.Labels.Intersects(keep) {
				continue
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}
