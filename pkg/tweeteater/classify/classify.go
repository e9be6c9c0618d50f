package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/tweeteater/pkg/tweeteater/internalerr"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// Label describes a record's relation to other records.
type Label string

const (
	Original Label = "original"
	Retweet  Label = "retweet"
	Reply    Label = "reply"
	Quote    Label = "quote"
)

// Labels lists the full vocabulary in column order.
var Labels = []Label{Original, Retweet, Reply, Quote}

// Field names inspected by the classifier.
const (
	RetweetedStatusField = "retweeted_status"
	QuotedStatusField    = "quoted_status"
	InReplyToField       = "in_reply_to_status_id"
)

// LabelSet is a set of labels.
type LabelSet map[Label]struct{}

// NewLabelSet builds a set from the given labels.
func NewLabelSet(labels ...Label) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// All returns a set holding every label.
func All() LabelSet {
	return NewLabelSet(Labels...)
}

// Has reports membership.
func (s LabelSet) Has(l Label) bool {
	_, ok := s[l]
	return ok
}

// Intersects reports whether the two sets share at least one label.
func (s LabelSet) Intersects(other LabelSet) bool {
	for l := range s {
		if other.Has(l) {
			return true
		}
	}
	return false
}

// Strings returns the label names sorted alphabetically.
func (s LabelSet) Strings() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, string(l))
	}
	sort.Strings(out)
	return out
}

// String joins the sorted names with "|", the form used in table cells.
func (s LabelSet) String() string {
	return strings.Join(s.Strings(), "|")
}

// ParseLabels validates label names against the vocabulary.
func ParseLabels(names []string) (LabelSet, error) {
	s := make(LabelSet, len(names))
	for _, name := range names {
		l := Label(strings.ToLower(strings.TrimSpace(name)))
		if !known(l) {
			return nil, fmt.Errorf("%w: unknown tweet type %q", internalerr.ErrInvalidInput, name)
		}
		s[l] = struct{}{}
	}
	return s, nil
}

func known(l Label) bool {
	for _, k := range Labels {
		if k == l {
			return true
		}
	}
	return false
}

// Classify labels a record. The checks are independent; original is set
// only when none of the structural conditions hold.
func Classify(r record.Record) LabelSet {
	labels := make(LabelSet, 1)
	if _, ok := r.Get(RetweetedStatusField).Object(); ok {
		labels[Retweet] = struct{}{}
	}
	if !r.Get(InReplyToField).Missing() {
		labels[Reply] = struct{}{}
	}
	if _, ok := r.Get(QuotedStatusField).Object(); ok {
		labels[Quote] = struct{}{}
	}
	if len(labels) == 0 {
		labels[Original] = struct{}{}
	}
	return labels
}

// Classified pairs a record with its labels; the record itself is left
// untouched.
type Classified struct {
	Record record.Record
	Labels LabelSet
}

// Of classifies r and returns the pair.
func Of(r record.Record) Classified {
	return Classified{Record: r, Labels: Classify(r)}
}
