package extract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/specgest/internal/doctree"
	"github.com/dgallion1/specgest/internal/label"
	"github.com/dgallion1/specgest/internal/parser"
)

// Section is one section fragment read from an archive.
type Section struct {
	Path   string
	Markup []byte
}

// Result is the outcome of extracting one archive.
type Result struct {
	Requirements      []Requirement `json:"requirements"`
	Sections          int           `json:"sections"`
	SkippedSections   []string      `json:"skipped_sections"`
	RequirementTables int           `json:"requirement_tables"`
}

// Extractor runs the section parser, table classifier and record builder
// over the section fragments of an archive.
type Extractor struct {
	classifier *Classifier
	builder    *Builder
	log        *slog.Logger
	stagingDir string
}

// NewExtractor creates an extractor. stagingDir is where uploaded archives
// are spooled; empty means the OS temp dir.
func NewExtractor(m *label.Matcher, stagingDir string, log *slog.Logger) *Extractor {
	if m == nil {
		m = label.NewMatcher(nil)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		classifier: NewClassifier(m),
		builder:    NewBuilder(m),
		log:        log,
		stagingDir: stagingDir,
	}
}

// ExtractAll parses every section in order and returns the complete records
// found in them. Malformed sections are skipped and listed in the result.
// Records are not deduplicated.
func (e *Extractor) ExtractAll(ctx context.Context, sections []Section) (*Result, error) {
	if len(sections) == 0 {
		return nil, ErrNoSectionFragments
	}

	res := &Result{
		Requirements:    []Requirement{},
		SkippedSections: []string{},
	}
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Sections++

		root, err := parser.ParseSection(bytes.NewReader(sec.Markup))
		if err != nil {
			var mde *parser.MalformedDocumentError
			if errors.As(err, &mde) {
				mde.Section = sec.Path
			}
			e.log.Warn("skipping malformed section", "section", sec.Path, "error", err)
			res.SkippedSections = append(res.SkippedSections, sec.Path)
			continue
		}

		found := 0
		for _, table := range doctree.FindAll(root, doctree.KindTable) {
			if !e.classifier.IsRequirementTable(table) {
				continue
			}
			res.RequirementTables++
			req := e.builder.Build(table)
			if !req.Complete() {
				e.log.Debug("discarding incomplete requirement", "section", sec.Path, "number", req.Number)
				continue
			}
			res.Requirements = append(res.Requirements, req)
			found++
		}
		e.log.Debug("section extracted", "section", sec.Path, "requirements", found)
	}
	return res, nil
}
