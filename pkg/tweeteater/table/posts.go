package table

import (
	"github.com/cognicore/tweeteater/pkg/tweeteater/attributes"
	"github.com/cognicore/tweeteater/pkg/tweeteater/classify"
	"github.com/cognicore/tweeteater/pkg/tweeteater/engagement"
	"github.com/cognicore/tweeteater/pkg/tweeteater/pipeline"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// Leading post table columns, before the attribute columns.
const (
	IDColumn    = "id"
	TypesColumn = "tweettypes"
)

// Post is one deduplicated row of the post table.
type Post struct {
	ID     record.ID
	Labels classify.LabelSet
	Values []record.Value
}

// Posts is the post table. Rows are deduplicated by id, first seen wins.
type Posts struct {
	paths      attributes.Paths
	columns    map[string]int
	html       map[int]bool
	rows       []Post
	index      map[record.ID]int
	duplicates int
}

// NewPosts creates an empty table projecting paths. Columns named in
// htmlColumns are rendered as plain text.
func NewPosts(paths attributes.Paths, htmlColumns []string) *Posts {
	p := &Posts{
		paths:   paths,
		columns: make(map[string]int, len(paths)),
		html:    make(map[int]bool),
		index:   make(map[record.ID]int),
	}
	for i, path := range paths {
		if _, ok := p.columns[path.Name()]; !ok {
			p.columns[path.Name()] = i
		}
	}
	for _, name := range htmlColumns {
		if i, ok := p.columns[name]; ok {
			p.html[i] = true
		}
	}
	return p
}

// Add inserts a row unless its id was already seen. It reports whether
// the row was kept.
func (p *Posts) Add(row pipeline.PostRow) bool {
	if _, ok := p.index[row.ID]; ok {
		p.duplicates++
		return false
	}
	p.index[row.ID] = len(p.rows)
	p.rows = append(p.rows, Post{ID: row.ID, Labels: row.Labels, Values: row.Values})
	return true
}

// Len returns the number of kept rows.
func (p *Posts) Len() int { return len(p.rows) }

// Duplicates returns how many rows were dropped as repeats.
func (p *Posts) Duplicates() int { return p.duplicates }

// Rows returns the kept rows in first-seen order.
func (p *Posts) Rows() []Post { return p.rows }

// Paths returns the attribute paths of the table.
func (p *Posts) Paths() attributes.Paths { return p.paths }

// IDs returns the tracked-id set for engagement extraction.
func (p *Posts) IDs() engagement.IDSet {
	ids := make(engagement.IDSet, len(p.rows))
	for _, row := range p.rows {
		ids.Add(row.ID)
	}
	return ids
}

// Lookup returns the row for id.
func (p *Posts) Lookup(id record.ID) (Post, bool) {
	i, ok := p.index[id]
	if !ok {
		return Post{}, false
	}
	return p.rows[i], true
}

// Value returns the named attribute of the post with the given id, or
// the Missing sentinel when the post or the column is absent.
func (p *Posts) Value(id record.ID, column string) record.Value {
	row, ok := p.Lookup(id)
	if !ok {
		return record.Missing
	}
	i, ok := p.columns[column]
	if !ok {
		return record.Missing
	}
	return row.Values[i]
}

// Header returns the column names.
func (p *Posts) Header() []string {
	return append([]string{IDColumn, TypesColumn}, p.paths.Names()...)
}

// Cells renders a row aligned with Header.
func (p *Posts) Cells(row Post) []string {
	cells := make([]string, 0, 2+len(row.Values))
	cells = append(cells, string(row.ID), row.Labels.String())
	for i, v := range row.Values {
		if p.html[i] {
			cells = append(cells, HTMLText(v.String()))
			continue
		}
		cells = append(cells, v.String())
	}
	return cells
}
