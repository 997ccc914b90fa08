package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/specgest/internal/parser"
)

// maxSectionBytes caps the decompressed size of a single section entry.
const maxSectionBytes = 64 << 20

// Run extracts requirements from the archive read from r. The bytes are
// spooled into a uniquely named staging file that is removed on every return
// path.
func (e *Extractor) Run(ctx context.Context, r io.Reader) (*Result, error) {
	tmp, err := os.CreateTemp(e.stagingDir, "specgest-*.hwpx")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	return e.run(ctx, tmp, size)
}

// RunBytes is Run over an in-memory archive.
func (e *Extractor) RunBytes(ctx context.Context, data []byte) (*Result, error) {
	return e.Run(ctx, bytes.NewReader(data))
}

// RunFile extracts requirements from an archive already on disk.
func (e *Extractor) RunFile(ctx context.Context, path string) (*Result, error) {
	if !parser.IsSupportedExtension(path) {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidInput, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	return e.run(ctx, f, info.Size())
}

func (e *Extractor) run(ctx context.Context, ra io.ReaderAt, size int64) (*Result, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	sections, err := readSections(zr)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, ErrNoSectionFragments
	}

	res, err := e.ExtractAll(ctx, sections)
	if err != nil {
		return nil, err
	}
	if len(res.Requirements) == 0 {
		if len(res.SkippedSections) == len(sections) {
			return nil, &parser.MalformedDocumentError{
				Section: res.SkippedSections[0],
				Err:     fmt.Errorf("all %d sections malformed", len(sections)),
			}
		}
		return nil, fmt.Errorf("%w: %d sections, %d requirement tables",
			ErrNoRequirementsFound, res.Sections, res.RequirementTables)
	}

	e.log.Info("archive extracted",
		"sections", res.Sections,
		"skipped_sections", len(res.SkippedSections),
		"requirement_tables", res.RequirementTables,
		"requirements", len(res.Requirements),
	)
	return res, nil
}

func readSections(zr *zip.Reader) ([]Section, error) {
	var files []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !parser.IsSectionEntry(f.Name) {
			continue
		}
		files = append(files, f)
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		return compareSectionPaths(a.Name, b.Name)
	})

	sections := make([]Section, 0, len(files))
	for _, f := range files {
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
		}
		sections = append(sections, Section{Path: f.Name, Markup: data})
	}
	return sections, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxSectionBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSectionBytes {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxSectionBytes)
	}
	return data, nil
}

var sectionIndexRe = regexp.MustCompile(`^(.*?)(\d+)(\.[^./]+)$`)

// compareSectionPaths orders section paths so that section2.xml sorts before
// section10.xml.
func compareSectionPaths(a, b string) int {
	ma := sectionIndexRe.FindStringSubmatch(a)
	mb := sectionIndexRe.FindStringSubmatch(b)
	if ma != nil && mb != nil && strings.EqualFold(ma[1], mb[1]) && strings.EqualFold(ma[3], mb[3]) {
		na, errA := strconv.Atoi(ma[2])
		nb, errB := strconv.Atoi(mb[2])
		if errA == nil && errB == nil && na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}
