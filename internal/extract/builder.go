package extract

import (
	"github.com/dgallion1/specgest/internal/doctree"
	"github.com/dgallion1/specgest/internal/label"
)

// builderState is the position of the row walk within a table.
type builderState int

const (
	// statePreDetail reads two-column "label | value" rows.
	statePreDetail builderState = iota
	// stateLookahead inspects the single row after the detail header.
	stateLookahead
	// stateDone ignores every remaining row.
	stateDone
)

// labelFields are tried in priority order against a label cell.
var labelFields = []label.Field{label.FieldNumber, label.FieldType, label.FieldName}

// Builder turns a requirement table into a (possibly partial) record.
type Builder struct {
	matcher *label.Matcher
}

func NewBuilder(m *label.Matcher) *Builder {
	return &Builder{matcher: m}
}

// Build walks the rows of table and fills whatever fields it can find.
// Missing fields are left empty; callers discard incomplete records.
func (b *Builder) Build(table *doctree.Element) Requirement {
	var req Requirement
	state := statePreDetail

	for _, row := range doctree.FindAll(table, doctree.KindRow) {
		if state == stateDone {
			break
		}
		cells := cellTexts(row)

		switch state {
		case statePreDetail:
			if len(cells) == 2 {
				b.assignLabel(&req, cells[0], cells[1])
			}
			if len(cells) > 0 && b.matcher.Match(cells[0], label.FieldDetail) {
				if len(cells) == 3 {
					req.Definition = cells[2]
				}
				state = stateLookahead
			}
		case stateLookahead:
			req.Detail = b.subDetail(cells)
			state = stateDone
		}
	}
	return req
}

func (b *Builder) assignLabel(req *Requirement, labelText, value string) {
	f, ok := b.matcher.First(labelText, labelFields...)
	if !ok {
		return
	}
	switch f {
	case label.FieldNumber:
		req.Number = value
	case label.FieldType:
		req.Type = value
	case label.FieldName:
		req.Name = value
	}
}

// subDetail returns the text right of the first sub-detail label in cells.
// The offset of one column is taken as-is; merged-cell metadata is not
// consulted.
func (b *Builder) subDetail(cells []string) string {
	for i, text := range cells {
		if !b.matcher.Match(text, label.FieldSubDetail) {
			continue
		}
		if i+1 < len(cells) {
			return cells[i+1]
		}
		return ""
	}
	return ""
}

func cellTexts(row *doctree.Element) []string {
	cells := doctree.FindAll(row, doctree.KindCell)
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = doctree.TextOf(c)
	}
	return out
}
