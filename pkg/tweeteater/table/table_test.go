package table

import (
	"reflect"
	"testing"

	"github.com/cognicore/tweeteater/pkg/tweeteater/attributes"
	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/engagement"
	"github.com/cognicore/tweeteater/pkg/tweeteater/pipeline"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

func postRow(id record.ID, created, handle, source string) pipeline.PostRow {
	return pipeline.PostRow{
		ID:     id,
		Labels: classify.NewLabelSet(classify.Original),
		Values: []record.Value{record.Of(created), record.Of(handle), record.Of(source)},
	}
}

func newPosts() *Posts {
	return NewPosts(attributes.MustParsePaths("created_at", "user.screen_name", "source"), []string{"source"})
}

func TestPostsFirstSeenWins(t *testing.T) {
	posts := newPosts()

	if !posts.Add(postRow("1", "Mon", "alice", "")) {
		t.Fatal("first row should be kept")
	}
	if posts.Add(postRow("1", "Tue", "mallory", "")) {
		t.Error("duplicate id should be dropped")
	}
	posts.Add(postRow("2", "Wed", "bob", ""))

	if posts.Len() != 2 || posts.Duplicates() != 1 {
		t.Errorf("Len=%d Duplicates=%d", posts.Len(), posts.Duplicates())
	}
	row, ok := posts.Lookup("1")
	if !ok || row.Values[1].String() != "alice" {
		t.Errorf("first-seen row should win, got %+v", row)
	}
	if ids := posts.IDs(); !ids.Has("1") || !ids.Has("2") || len(ids) != 2 {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestPostsHeaderAndCells(t *testing.T) {
	posts := newPosts()
	posts.Add(postRow("7", "Mon", "alice", `<a href="http://twitter.com/download/iphone" rel="nofollow">Twitter for iPhone</a>`))

	wantHeader := []string{"id", "tweettypes", "created_at", "user.screen_name", "source"}
	if !reflect.DeepEqual(posts.Header(), wantHeader) {
		t.Errorf("Header() = %v", posts.Header())
	}

	cells := posts.Cells(posts.Rows()[0])
	want := []string{"7", "original", "Mon", "alice", "Twitter for iPhone"}
	if !reflect.DeepEqual(cells, want) {
		t.Errorf("Cells() = %v, want %v", cells, want)
	}
}

func TestPostsValueMissing(t *testing.T) {
	posts := newPosts()
	posts.Add(postRow("1", "Mon", "alice", ""))

	if !posts.Value("9", "created_at").Missing() {
		t.Error("unknown id should yield missing")
	}
	if !posts.Value("1", "lang").Missing() {
		t.Error("unknown column should yield missing")
	}
}

func TestEngagementsDedupAndJoin(t *testing.T) {
	posts := newPosts()
	posts.Add(postRow("10", "Mon", "alice", ""))
	table := NewEngagements(posts)

	tuple := engagement.Tuple{
		ID:        "11",
		CreatedAt: record.Of("Tue"),
		Handle:    record.Of("bob"),
		TargetID:  "10",
		Kind:      engagement.Retweet,
		Count:     engagement.One,
	}
	if !table.Add(tuple) {
		t.Fatal("first tuple should be kept")
	}
	if table.Add(tuple) {
		t.Error("repeat should be dropped")
	}
	counter := tuple
	counter.Kind = engagement.FavouriteCount
	counter.Handle = record.Missing
	counter.Count = engagement.Count{N: 3, Known: true}
	table.Add(counter)

	if table.Len() != 2 || table.Duplicates() != 1 {
		t.Errorf("Len=%d Duplicates=%d", table.Len(), table.Duplicates())
	}

	got := table.Cells(table.Rows()[0])
	want := []string{"Tue", "11", "bob", "10", "retweet", "1", "alice", "Mon"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Cells() = %v, want %v", got, want)
	}
	got = table.Cells(table.Rows()[1])
	want = []string{"Tue", "11", "", "10", "favourite_count", "3", "alice", "Mon"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Cells() = %v, want %v", got, want)
	}
	if len(EngagementHeader) != len(got) {
		t.Errorf("header has %d columns, row has %d", len(EngagementHeader), len(got))
	}
}

func TestEngagementsWithoutPosts(t *testing.T) {
	table := NewEngagements(nil)
	table.Add(engagement.Tuple{ID: "1", TargetID: "2", Kind: engagement.Reply, Count: engagement.One})

	row := table.Rows()[0]
	if !row.TargetHandle.Missing() || !row.TargetCreatedAt.Missing() {
		t.Errorf("join without posts should be missing: %+v", row)
	}
}

func TestHTMLText(t *testing.T) {
	cases := map[string]string{
		"":                                "",
		"plain":                           "plain",
		"Tom &amp; Jerry":                 "Tom & Jerry",
		`<a href="x">Twitter Web App</a>`: "Twitter Web App",
		"<p>one <b>two</b></p>":           "one two",
	}
	for in, want := range cases {
		if got := HTMLText(in); got != want {
			t.Errorf("HTMLText(%q) = %q, want %q", in, got, want)
		}
	}
}
