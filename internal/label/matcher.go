package label

// Matcher applies Matches against the lists of an injected Set.
type Matcher struct {
	set *Set
}

// NewMatcher returns a Matcher over set, or over DefaultSet when set is nil.
func NewMatcher(set *Set) *Matcher {
	if set == nil {
		set = DefaultSet()
	}
	return &Matcher{set: set}
}

// Match reports whether text matches any keyword of any of the given fields.
func (m *Matcher) Match(text string, fields ...Field) bool {
	_, ok := m.First(text, fields...)
	return ok
}

// First returns the first field, in the order given, whose keywords match text.
func (m *Matcher) First(text string, fields ...Field) (Field, bool) {
	for _, f := range fields {
		if Matches(text, m.set.keywords[f]) {
			return f, true
		}
	}
	return 0, false
}

// Set returns the keyword set the matcher was built with.
func (m *Matcher) Set() *Set {
	return m.set
}
