package attributes

import (
	"fmt"
	"strings"

	"github.com/cognicore/tweeteater/pkg/tweeteater/internalerr"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// Defaults are the attributes extracted when the caller names none.
var Defaults = []string{
	"created_at",
	"user.screen_name",
	"user.name",
	"user.favourites_count",
	"text",
	"extended_tweet.full_text",
	"lang",
}

// Path is a dotted field path split into its segments.
type Path struct {
	name     string
	segments []string
}

// NewPath parses a dotted path. Empty paths and empty segments are rejected.
func NewPath(name string) (Path, error) {
	if strings.TrimSpace(name) == "" {
		return Path{}, fmt.Errorf("%w: empty attribute path", internalerr.ErrInvalidInput)
	}
	segments := record.SplitPath(name)
	for _, s := range segments {
		if s == "" {
			return Path{}, fmt.Errorf("%w: attribute path %q has an empty segment", internalerr.ErrInvalidInput, name)
		}
	}
	return Path{name: name, segments: segments}, nil
}

// Name returns the path as written, used as the column header.
func (p Path) Name() string { return p.name }

// Segments returns the split path.
func (p Path) Segments() []string { return p.segments }

// Paths is an ordered list of attribute paths.
type Paths []Path

// ParsePaths parses names in order.
func ParsePaths(names []string) (Paths, error) {
	paths := make(Paths, 0, len(names))
	for _, n := range names {
		p, err := NewPath(n)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// MustParsePaths is ParsePaths for static path lists.
func MustParsePaths(names ...string) Paths {
	paths, err := ParsePaths(names)
	if err != nil {
		panic(err)
	}
	return paths
}

// Names returns the column headers in order.
func (ps Paths) Names() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.name
	}
	return out
}

// Project reads every path from r, in order. A missing path yields the
// Missing sentinel at its position, so the result always has len(paths)
// entries.
func Project(r record.Record, paths Paths) []record.Value {
	values := make([]record.Value, len(paths))
	for i, p := range paths {
		values[i] = r.Get(p.segments...)
	}
	return values
}
