// Command specgest extracts requirement records from HWPX documents, either
// as a one-shot CLI or as an HTTP service.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/specgest/internal/config"
	"github.com/dgallion1/specgest/internal/extract"
	"github.com/dgallion1/specgest/internal/label"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "specgest",
		Short: "Extract requirement tables from HWPX documents",
		Long: `specgest reads Hangul (HWPX) documents, finds requirement tables and
emits one record per complete requirement.

Configuration comes from defaults, an optional YAML file (--config or
SPECGEST_CONFIG) and SPECGEST_* environment variables, in that order.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newExtractCmd(&configPath))
	return root
}

// loadConfig loads and validates the configuration.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	// Validate already rejected unknown levels.
	level, _ := cfg.Log.SlogLevel()
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newExtractor wires the keyword set from extract.keywords_file.
func newExtractor(cfg config.Config, log *slog.Logger) (*extract.Extractor, error) {
	set, err := label.LoadSetFile(cfg.Extract.KeywordsFile)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	return extract.NewExtractor(label.NewMatcher(set), cfg.Extract.StagingDir, log), nil
}
