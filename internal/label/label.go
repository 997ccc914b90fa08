// Package label decides whether a table cell names a requirement field.
//
// Labels in authored specifications vary in spacing and phrasing, so matching
// is whitespace- and case-insensitive substring containment against an
// ordered list of synonyms per field.
package label

import (
	"strings"
	"unicode"
)

// Field is a logical requirement field a label can name.
type Field int

const (
	FieldNumber Field = iota
	FieldType
	FieldName
	FieldDetail
	FieldSubDetail
)

var fieldNames = [...]string{
	FieldNumber:    "number",
	FieldType:      "type",
	FieldName:      "name",
	FieldDetail:    "detail",
	FieldSubDetail: "sub-detail",
}

// Fields lists every field in declaration order.
var Fields = []Field{FieldNumber, FieldType, FieldName, FieldDetail, FieldSubDetail}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField maps a field name back to its Field.
func ParseField(s string) (Field, bool) {
	for i, name := range fieldNames {
		if name == s {
			return Field(i), true
		}
	}
	return 0, false
}

// Matches reports whether text contains any keyword once both have had all
// whitespace removed and been lowercased.
func Matches(text string, keywords []string) bool {
	t := normalize(text)
	if t == "" {
		return false
	}
	for _, kw := range keywords {
		k := normalize(kw)
		if k == "" {
			continue
		}
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
