package extract

import "strings"

// Requirement is one requirement record lifted from a requirement table.
type Requirement struct {
	Number     string `json:"number"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Definition string `json:"definition"`
	Detail     string `json:"detail"`
}

// Complete reports whether every field is non-empty after trimming. Only
// complete records ever leave this package.
func (r Requirement) Complete() bool {
	for _, v := range [...]string{r.Number, r.Name, r.Type, r.Definition, r.Detail} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
