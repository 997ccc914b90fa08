package extract

import (
	"github.com/dgallion1/specgest/internal/doctree"
	"github.com/dgallion1/specgest/internal/label"
)

// Classifier decides whether a table carries requirement metadata.
type Classifier struct {
	matcher *label.Matcher
}

func NewClassifier(m *label.Matcher) *Classifier {
	return &Classifier{matcher: m}
}

// IsRequirementTable reports whether any cell of table mentions a number,
// type or name label. It stops at the first hit.
func (c *Classifier) IsRequirementTable(table *doctree.Element) bool {
	for _, cell := range doctree.FindAll(table, doctree.KindCell) {
		if c.matcher.Match(doctree.TextOf(cell), label.FieldNumber, label.FieldType, label.FieldName) {
			return true
		}
	}
	return false
}
