// Package geonamesdb materializes a GeoNames cities dump into an indexed
// SQLite database.
//
// The import is one pass: the cities table is created, every input line
// becomes one row, and the (lat, lng) index is built only after the last
// row so the bulk load does not pay for index maintenance. The whole run is
// a single transaction; if anything fails nothing is committed.
//
//	n, err := geonamesdb.Import(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
package geonamesdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Default file locations, relative to the working directory.
const (
	DefaultInputPath = "cities15000.txt"
	DefaultStorePath = "geonames.db"
)

// Config contains the options for an import.
type Config struct {
	InputPath string       // GeoNames dump, plain or .zip (default: "cities15000.txt")
	StorePath string       // SQLite file to create (default: "geonames.db")
	Output    io.Writer    // Progress lines (default: os.Stdout)
	Logger    *slog.Logger // Phase logging (default: discarded)
}

// Option is a functional option for configuring an import.
type Option func(*Config)

// WithInputPath sets the gazetteer file to read.
func WithInputPath(p string) Option {
	return func(c *Config) {
		c.InputPath = p
	}
}

// WithStorePath sets the SQLite file to write.
func WithStorePath(p string) Option {
	return func(c *Config) {
		c.StorePath = p
	}
}

// WithOutput sets where the progress lines are written.
func WithOutput(w io.Writer) Option {
	return func(c *Config) {
		c.Output = w
	}
}

// WithLogger sets the structured logger used for phase transitions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultConfig() *Config {
	return &Config{
		InputPath: DefaultInputPath,
		StorePath: DefaultStorePath,
		Output:    os.Stdout,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Phase is a step of the import.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseLoading      Phase = "loading"
	PhaseFinalizing   Phase = "finalizing"
)

// Import reads the configured gazetteer into a new cities table, indexes it
// and commits. It returns the number of rows written. Any error aborts the
// whole run: the transaction is rolled back and a store file created by this
// call is removed.
func Import(ctx context.Context, opts ...Option) (int64, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.Logger.With(slog.String("input", cfg.InputPath), slog.String("store", cfg.StorePath))

	log.Debug("import phase", slog.String("phase", string(PhaseInitializing)))
	s, err := openStore(ctx, cfg.StorePath)
	if err != nil {
		return 0, err
	}
	success := false
	defer func() {
		if !success {
			s.abort()
		}
	}()

	if err := s.createTable(ctx); err != nil {
		return 0, err
	}

	log.Debug("import phase", slog.String("phase", string(PhaseLoading)))
	fmt.Fprintf(cfg.Output, "Reading %s...\n", filepath.Base(cfg.InputPath))
	src, err := openSource(cfg.InputPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	var count int64
	err = scanRecords(src, func(_ int, rec Record) error {
		if err := s.insertCity(ctx, rec.City()); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", cfg.InputPath, err)
	}

	log.Debug("import phase", slog.String("phase", string(PhaseFinalizing)), slog.Int64("cities", count))
	log.Info("indexing", slog.String("index", indexName))
	if err := s.createIndex(ctx); err != nil {
		return 0, err
	}
	success = true
	if err := s.commit(); err != nil {
		return 0, err
	}

	fmt.Fprintf(cfg.Output, "Done! Created %s with %d cities.\n", cfg.StorePath, count)
	log.Info("import complete", slog.Int64("cities", count))
	return count, nil
}
