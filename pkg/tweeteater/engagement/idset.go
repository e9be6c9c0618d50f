package engagement

import (
	"sort"

	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// IDSet is the set of tracked ids that may receive engagement.
type IDSet map[record.ID]struct{}

// NewIDSet builds a set, dropping empty ids.
func NewIDSet(ids ...record.ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id; the empty id is never tracked.
func (s IDSet) Add(id record.ID) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// Has reports membership.
func (s IDSet) Has(id record.ID) bool {
	_, ok := s[id]
	return ok
}

// Lookup reads the id held under field of an embedded object and reports
// whether it is tracked.
func (s IDSet) Lookup(embedded any, field string) (record.ID, bool) {
	obj, ok := record.Of(embedded).Object()
	if !ok {
		return "", false
	}
	id, ok := obj.Get(field).ID()
	if !ok || !s.Has(id) {
		return "", false
	}
	return id, true
}

// Sorted returns the ids in lexical order.
func (s IDSet) Sorted() []record.ID {
	out := make([]record.ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
