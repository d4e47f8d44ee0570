package geonamesdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// probeRadius is the angular radius of the bounding-box query used to check
// that the coordinate index is picked up by the planner.
const probeRadius = 1 * s1.Degree

// boundingBoxSQL is the range query idx_lat_lng exists to serve.
const boundingBoxSQL = `SELECT name, country, lat, lng FROM cities
WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?`

// wantColumns is the cities schema, in declaration order.
var wantColumns = []struct{ name, typ string }{
	{"name", "TEXT"},
	{"country", "TEXT"},
	{"lat", "REAL"},
	{"lng", "REAL"},
}

// Stats describes a validated store.
type Stats struct {
	Cities int64   // Rows in the cities table
	Bounds s2.Rect // min/max lat and lng over all cities; empty when there are none
	Probe  s2.Rect // Rectangle used for the query plan check
	InBox  int64   // Cities inside Probe
}

// Validate opens the store at path read-only and checks that it has the
// cities schema, that idx_lat_lng covers (lat, lng), and that a
// bounding-box query is planned through that index.
func Validate(ctx context.Context, path string) (Stats, error) {
	var st Stats

	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return st, fmt.Errorf("opening store %s: %w", path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := checkColumns(ctx, db); err != nil {
		return st, err
	}
	if err := checkIndex(ctx, db); err != nil {
		return st, err
	}

	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM cities`).Scan(&st.Cities); err != nil {
		return st, fmt.Errorf("counting cities: %w", err)
	}
	st.Bounds, err = bounds(ctx, db)
	if err != nil {
		return st, err
	}

	center := s2.LatLngFromDegrees(0, 0)
	if !st.Bounds.IsEmpty() {
		center = st.Bounds.Center()
	}
	st.Probe = s2.CapFromCenterAngle(s2.PointFromLatLng(center), probeRadius).RectBound()

	if err := checkPlan(ctx, db, st.Probe); err != nil {
		return st, err
	}
	args := rectArgs(st.Probe)
	q := `SELECT count(*) FROM cities WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?`
	if err := db.QueryRowContext(ctx, q, args...).Scan(&st.InBox); err != nil {
		return st, fmt.Errorf("probing bounding box: %w", err)
	}
	return st, nil
}

func checkColumns(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info('cities') ORDER BY cid`)
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return fmt.Errorf("reading schema: %w", err)
		}
		if i >= len(wantColumns) {
			return fmt.Errorf("unexpected column %q in %s", name, tableName)
		}
		if want := wantColumns[i]; name != want.name || !strings.EqualFold(typ, want.typ) {
			return fmt.Errorf("column %d is %s %s, want %s %s", i, name, typ, want.name, want.typ)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	if i == 0 {
		return fmt.Errorf("table %s not found", tableName)
	}
	if i != len(wantColumns) {
		return fmt.Errorf("table %s has %d columns, want %d", tableName, i, len(wantColumns))
	}
	return nil
}

func checkIndex(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_index_info('idx_lat_lng') ORDER BY seqno`)
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("reading index: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading index: %w", err)
	}
	if got := strings.Join(cols, ","); got != "lat,lng" {
		return fmt.Errorf("index %s covers (%s), want (lat,lng)", indexName, got)
	}
	return nil
}

// checkPlan requires the bounding-box query to be answered through idx_lat_lng.
func checkPlan(ctx context.Context, db *sql.DB, r s2.Rect) error {
	rows, err := db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+boundingBoxSQL, rectArgs(r)...)
	if err != nil {
		return fmt.Errorf("explaining bounding-box query: %w", err)
	}
	defer rows.Close()

	var plan []string
	for rows.Next() {
		var id, parent, notused int
		var detail string
		if err := rows.Scan(&id, &parent, &notused, &detail); err != nil {
			return fmt.Errorf("explaining bounding-box query: %w", err)
		}
		plan = append(plan, detail)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("explaining bounding-box query: %w", err)
	}
	for _, step := range plan {
		if strings.Contains(step, indexName) {
			return nil
		}
	}
	return fmt.Errorf("bounding-box query does not use %s: %s", indexName, strings.Join(plan, "; "))
}

func bounds(ctx context.Context, db *sql.DB) (s2.Rect, error) {
	var minLat, maxLat, minLng, maxLng sql.NullFloat64
	err := db.QueryRowContext(ctx, `SELECT min(lat), max(lat), min(lng), max(lng) FROM cities`).
		Scan(&minLat, &maxLat, &minLng, &maxLng)
	if err != nil {
		return s2.EmptyRect(), fmt.Errorf("computing bounds: %w", err)
	}
	if !minLat.Valid {
		return s2.EmptyRect(), nil
	}
	return s2.Rect{
		Lat: r1.Interval{Lo: radians(minLat.Float64), Hi: radians(maxLat.Float64)},
		Lng: s1.IntervalFromEndpoints(radians(minLng.Float64), radians(maxLng.Float64)),
	}, nil
}

func radians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

// rectArgs flattens r into (minLat, maxLat, minLng, maxLng) degree arguments.
// A rectangle crossing the antimeridian is widened to the full longitude range.
func rectArgs(r s2.Rect) []any {
	lo, hi := r.Lo(), r.Hi()
	minLng, maxLng := lo.Lng.Degrees(), hi.Lng.Degrees()
	if r.Lng.IsInverted() {
		minLng, maxLng = -180, 180
	}
	return []any{lo.Lat.Degrees(), hi.Lat.Degrees(), minLng, maxLng}
}
