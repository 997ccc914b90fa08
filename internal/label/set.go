package label

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Set maps each field to its ordered synonym list. A Set is never mutated
// after construction; Keywords hands out copies.
type Set struct {
	keywords map[Field][]string
}

// DefaultSet returns the built-in synonym table observed in Korean public
// procurement specifications.
func DefaultSet() *Set {
	return &Set{keywords: map[Field][]string{
		FieldNumber: {
			"요구사항 고유번호",
			"요구사항 번호",
			"고유번호",
			"번호",
			"number",
		},
		FieldType: {
			"요구사항 분류",
			"요구사항 구분",
			"구분",
			"분류",
			"유형",
			"type",
		},
		FieldName: {
			"요구사항 명칭",
			"요구사항명",
			"명칭",
			"name",
		},
		FieldDetail: {
			"요구사항 상세",
			"상세 설명",
			"상세",
			"detail",
		},
		FieldSubDetail: {
			"세부내용",
			"세부 사항",
			"세부",
			"description",
		},
	}}
}

// NewSet builds a Set from explicit lists. Fields absent from m fall back to
// the defaults.
func NewSet(m map[Field][]string) *Set {
	s := DefaultSet()
	for f, kws := range m {
		s.keywords[f] = slices.Clone(kws)
	}
	return s
}

// Keywords returns a copy of the synonym list for f.
func (s *Set) Keywords(f Field) []string {
	return slices.Clone(s.keywords[f])
}

// LoadSet decodes a YAML document mapping field names (number, type, name,
// detail, sub-detail) to synonym lists.
func LoadSet(r io.Reader) (*Set, error) {
	var raw map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultSet(), nil
		}
		return nil, fmt.Errorf("decode keyword set: %w", err)
	}

	m := make(map[Field][]string, len(raw))
	for name, kws := range raw {
		f, ok := ParseField(name)
		if !ok {
			return nil, fmt.Errorf("unknown keyword field %q", name)
		}
		if len(kws) == 0 {
			return nil, fmt.Errorf("keyword field %q has no synonyms", name)
		}
		m[f] = kws
	}
	return NewSet(m), nil
}

// LoadSetFile reads a keyword set from path. An empty path yields the defaults.
func LoadSetFile(path string) (*Set, error) {
	if path == "" {
		return DefaultSet(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyword set: %w", err)
	}
	defer f.Close()
	return LoadSet(f)
}
