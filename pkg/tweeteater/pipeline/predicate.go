package pipeline

import "github.com/cognicore/tweeteater/pkg/tweeteater/record"

// Predicate decides whether a record enters the pipeline.
type Predicate func(record.Record) bool

// All keeps every record.
func All(record.Record) bool { return true }

// AuthorIn keeps records whose user.screen_name is in handles.
func AuthorIn(handles map[string]struct{}) Predicate {
	return func(r record.Record) bool {
		name, ok := r.Get("user", "screen_name").Text()
		if !ok {
			return false
		}
		_, ok = handles[name]
		return ok
	}
}

// And keeps records accepted by every predicate.
func And(preds ...Predicate) Predicate {
	return func(r record.Record) bool {
		for _, p := range preds {
			if p != nil && !p(r) {
				return false
			}
		}
		return true
	}
}
