// Command create-db builds geonames.db from the GeoNames cities15000.txt dump
// in the current directory.
//
// Usage:
//
//	go run ./cmd/create-db
//
// The store must not already contain a cities table. Download and unpack
// https://download.geonames.org/export/dump/cities15000.zip first.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/andreiashu/geonamesdb"
	"github.com/lmittmann/tint"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelWarn,
		TimeFormat: time.Kitchen,
	}))

	_, err := geonamesdb.Import(context.Background(),
		geonamesdb.WithInputPath(geonamesdb.DefaultInputPath),
		geonamesdb.WithStorePath(geonamesdb.DefaultStorePath),
		geonamesdb.WithOutput(os.Stdout),
		geonamesdb.WithLogger(logger),
	)
	if err != nil {
		logger.Error("import failed", slog.Any("error", err))
		os.Exit(1)
	}
}
