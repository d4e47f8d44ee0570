// Command validate-db checks a geonames.db produced by create-db: schema,
// coordinate index, and that bounding-box queries are planned through it.
//
// Usage:
//
//	go run ./cmd/validate-db
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/andreiashu/geonamesdb"
	"github.com/lmittmann/tint"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))

	fmt.Printf("Validating %s...\n", geonamesdb.DefaultStorePath)
	st, err := geonamesdb.Validate(context.Background(), geonamesdb.DefaultStorePath)
	if err != nil {
		logger.Error("validation failed", slog.String("store", geonamesdb.DefaultStorePath), slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("      City count: %d (OK)\n", st.Cities)
	if !st.Bounds.IsEmpty() {
		fmt.Printf("      Bounds: %v\n", st.Bounds)
	}
	fmt.Printf("      Index probe: %d cities within %v (OK)\n", st.InBox, st.Probe)
}
