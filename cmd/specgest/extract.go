package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/specgest/internal/extract"
)

type extractOptions struct {
	concurrency int
	timeout     time.Duration
}

// fileResult is one line of extract output.
type fileResult struct {
	File              string                `json:"file"`
	Requirements      []extract.Requirement `json:"requirements,omitempty"`
	Sections          int                   `json:"sections,omitempty"`
	SkippedSections   []string              `json:"skipped_sections,omitempty"`
	RequirementTables int                   `json:"requirement_tables,omitempty"`
	Error             string                `json:"error,omitempty"`
	Kind              string                `json:"kind,omitempty"`
}

func newExtractCmd(configPath *string) *cobra.Command {
	var opts extractOptions
	cmd := &cobra.Command{
		Use:   "extract <file.hwpx>...",
		Short: "Extract requirements from HWPX files and print them as JSON lines",
		Long: `Extract requirement records from one or more HWPX files.

Each file produces one JSON object on stdout, in argument order. Files are
processed concurrently; each gets its own staging file and timeout.

Examples:
  specgest extract spec.hwpx
  specgest extract --concurrency 8 --timeout 10s docs/*.hwpx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())
			ex, err := newExtractor(cfg, log)
			if err != nil {
				return err
			}
			if opts.timeout <= 0 {
				opts.timeout = cfg.Extract.Timeout
			}
			return runExtract(cmd.Context(), ex, args, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "files processed in parallel")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-file timeout (default extract.timeout)")
	return cmd
}

func runExtract(ctx context.Context, ex *extract.Extractor, files []string, opts extractOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i, path := range files {
		g.Go(func() error {
			results[i] = extractFile(gctx, ex, path, opts.timeout)
			// Per-file failures are reported, not fatal.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func extractFile(ctx context.Context, ex *extract.Extractor, path string, timeout time.Duration) fileResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := ex.RunFile(ctx, path)
	if err != nil {
		return fileResult{File: path, Error: err.Error(), Kind: extract.Kind(err)}
	}
	return fileResult{
		File:              path,
		Requirements:      res.Requirements,
		Sections:          res.Sections,
		SkippedSections:   res.SkippedSections,
		RequirementTables: res.RequirementTables,
	}
}
