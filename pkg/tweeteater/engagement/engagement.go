package engagement

import (
	"strconv"

	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// Kind names what a tuple records.
type Kind string

const (
	// Counter observations read off the embedded object.
	FavouriteCount Kind = "favourite_count"
	RetweetCount   Kind = "retweet_count"

	// In-sample actions by the containing record; their count is always 1.
	Retweet Kind = "retweet"
	Quote   Kind = "quote"
	Reply   Kind = "reply"
)

// Kinds lists every kind in emission order.
var Kinds = []Kind{FavouriteCount, RetweetCount, Retweet, Quote, Reply}

// Count is an engagement value. An unknown count (the embedded object had
// no counter) is not zero and renders as an empty cell.
type Count struct {
	N     int64
	Known bool
}

// One is the value of every in-sample action.
var One = Count{N: 1, Known: true}

// Observed converts a looked-up counter into a Count.
func Observed(v record.Value) Count {
	n, ok := v.Int()
	return Count{N: n, Known: ok}
}

func (c Count) String() string {
	if !c.Known {
		return ""
	}
	return strconv.FormatInt(c.N, 10)
}

// Tuple is one engagement fact from the originating record towards a
// tracked target.
type Tuple struct {
	ID        record.ID
	CreatedAt record.Value
	// Handle is the acting user's screen name for in-sample actions and
	// the Missing sentinel for counter observations.
	Handle   record.Value
	TargetID record.ID
	Kind     Kind
	Count    Count
}

// Field names read by the extractor.
const (
	idField            = "id"
	createdAtField     = "created_at"
	favoriteCountField = "favorite_count"
	retweetCountField  = "retweet_count"
)

var handlePath = []string{"user", "screen_name"}

// Extract emits the engagement tuples of one classified record towards the
// tracked ids. An embedded reference outside ids contributes nothing; each
// label contributes its own block independently of the others.
func Extract(r record.Record, labels classify.LabelSet, ids IDSet) []Tuple {
	if len(ids) == 0 {
		return nil
	}

	origin, _ := r.ID()
	createdAt := r.Get(createdAtField)
	handle := r.Get(handlePath...)

	var out []Tuple
	embedded := func(field string, action Kind) {
		obj := r.Get(field)
		target, ok := ids.Lookup(obj.Raw(), idField)
		if !ok {
			return
		}
		nested, _ := obj.Object()
		out = append(out,
			Tuple{ID: origin, CreatedAt: createdAt, Handle: record.Missing, TargetID: target,
				Kind: FavouriteCount, Count: Observed(nested.Get(favoriteCountField))},
			Tuple{ID: origin, CreatedAt: createdAt, Handle: record.Missing, TargetID: target,
				Kind: RetweetCount, Count: Observed(nested.Get(retweetCountField))},
			Tuple{ID: origin, CreatedAt: createdAt, Handle: handle, TargetID: target,
				Kind: action, Count: One},
		)
	}

	if labels.Has(classify.Retweet) {
		embedded(classify.RetweetedStatusField, Retweet)
	}
	if labels.Has(classify.Quote) {
		embedded(classify.QuotedStatusField, Quote)
	}
	if labels.Has(classify.Reply) {
		if target, ok := r.Get(classify.InReplyToField).ID(); ok && ids.Has(target) {
			out = append(out, Tuple{ID: origin, CreatedAt: createdAt, Handle: handle,
				TargetID: target, Kind: Reply, Count: One})
		}
	}
	return out
}
