package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/specgest/internal/doctree"
)

// ParagraphNS is the HWPML paragraph namespace that carries the table and
// text vocabulary of a section fragment.
const ParagraphNS = "http://www.hancom.co.kr/hwpml/2011/paragraph"

var elementKinds = map[string]doctree.Kind{
	"tbl": doctree.KindTable,
	"tr":  doctree.KindRow,
	"tc":  doctree.KindCell,
	"p":   doctree.KindParagraph,
	"t":   doctree.KindTextRun,
}

func kindOf(name xml.Name) doctree.Kind {
	if name.Space != ParagraphNS {
		return doctree.KindOther
	}
	if k, ok := elementKinds[name.Local]; ok {
		return k
	}
	return doctree.KindOther
}

// ParseSection parses one section fragment into an element tree. The
// returned root is a synthetic KindOther element whose single child is the
// fragment's document element.
func ParseSection(r io.Reader) (*doctree.Element, error) {
	dec := xml.NewDecoder(r)

	root := &doctree.Element{Kind: doctree.KindOther}
	stack := []*doctree.Element{root}
	// Open text runs; character data belongs to the innermost one.
	var runs []*doctree.Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedDocumentError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := &doctree.Element{Kind: kindOf(t.Name), Name: t.Name}
			parent := stack[len(stack)-1]
			if parent == root && len(root.Children) > 0 {
				return nil, &MalformedDocumentError{Err: errors.New("multiple document elements")}
			}
			parent.Children = append(parent.Children, e)
			stack = append(stack, e)
			if e.Kind == doctree.KindTextRun {
				runs = append(runs, e)
			}
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, &MalformedDocumentError{Err: fmt.Errorf("unexpected end element %s", t.Name.Local)}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.Kind == doctree.KindTextRun {
				runs = runs[:len(runs)-1]
			}
		case xml.CharData:
			if len(runs) > 0 {
				runs[len(runs)-1].Text += string(t)
			}
		}
	}

	if len(stack) != 1 {
		return nil, &MalformedDocumentError{Err: io.ErrUnexpectedEOF}
	}
	if len(root.Children) == 0 {
		return nil, &MalformedDocumentError{Err: errors.New("no document element")}
	}
	return root, nil
}
