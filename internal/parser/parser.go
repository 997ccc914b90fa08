package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the upload extensions this service accepts.
var SupportedExtensions = map[string]bool{
	".hwpx": true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// SectionExt is the extension of section fragments inside an archive.
const SectionExt = ".xml"

// IsSectionEntry reports whether an archive entry path names a section
// fragment: it contains "section" and ends in SectionExt, ignoring case.
func IsSectionEntry(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "section") && strings.HasSuffix(lower, SectionExt)
}

// MalformedDocumentError reports section markup that could not be parsed
// into an element tree.
type MalformedDocumentError struct {
	Section string // Archive-internal path, empty when unknown
	Err     error
}

func (e *MalformedDocumentError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("malformed document: %v", e.Err)
	}
	return fmt.Sprintf("malformed document %s: %v", e.Section, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}
