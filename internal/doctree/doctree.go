package doctree

import (
	"encoding/xml"
	"strings"
)

// Kind classifies an element of a parsed section.
type Kind int

const (
	KindOther     Kind = iota // Any element outside the table/paragraph vocabulary
	KindTable                 // Table
	KindRow                   // Table row
	KindCell                  // Table cell
	KindParagraph             // Paragraph
	KindTextRun               // Run of literal text
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindRow:
		return "row"
	case KindCell:
		return "cell"
	case KindParagraph:
		return "paragraph"
	case KindTextRun:
		return "text-run"
	}
	return "other"
}

// Element is a node of a section's element tree. Parents own their children;
// there are no back-references.
type Element struct {
	Kind     Kind
	Name     xml.Name   // Source tag
	Text     string     // Literal text (text runs only)
	Children []*Element // Child elements in document order
}

// FindAll returns every descendant of root with the given kind, in document
// order. root itself is never included.
func FindAll(root *Element, kind Kind) []*Element {
	if root == nil {
		return nil
	}
	var out []*Element
	var walk func(*Element)
	walk = func(e *Element) {
		for _, c := range e.Children {
			if c.Kind == kind {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// TextOf returns a cell's text: its paragraphs joined by newlines, each
// paragraph being the concatenation of its text runs.
func TextOf(cell *Element) string {
	paras := FindAll(cell, KindParagraph)
	if len(paras) == 0 {
		return ""
	}
	lines := make([]string, 0, len(paras))
	for _, p := range paras {
		lines = append(lines, paragraphText(p))
	}
	return strings.Join(lines, "\n")
}

func paragraphText(p *Element) string {
	var buf strings.Builder
	for _, run := range FindAll(p, KindTextRun) {
		buf.WriteString(run.Text)
	}
	return buf.String()
}
