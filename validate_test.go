package geonamesdb

import (
	"context"
	"io"
	"math"
	"path/filepath"

	"github.com/golang/geo/s2"
	. "gopkg.in/check.v1"
)

type ValidateSuite struct {
	store string
}

var _ = Suite(&ValidateSuite{})

func (s *ValidateSuite) SetUpTest(c *C) {
	s.store = filepath.Join(c.MkDir(), "geonames.db")
}

func (s *ValidateSuite) importLines(c *C, lines ...string) {
	input := filepath.Join(filepath.Dir(s.store), "cities15000.txt")
	c.Assert(writeLines(input, lines...), IsNil)
	_, err := Import(context.Background(), WithInputPath(input), WithStorePath(s.store), WithOutput(io.Discard))
	c.Assert(err, IsNil)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func (s *ValidateSuite) TestValidateImported(c *C) {
	s.importLines(c, lineElTarter, lineAndorra, lineDubai)

	st, err := Validate(context.Background(), s.store)
	c.Assert(err, IsNil)
	c.Assert(st.Cities, Equals, int64(3))

	lo, hi := st.Bounds.Lo(), st.Bounds.Hi()
	c.Assert(near(lo.Lat.Degrees(), 25.07725), Equals, true, Commentf("lo = %v", lo))
	c.Assert(near(hi.Lat.Degrees(), 42.5795), Equals, true, Commentf("hi = %v", hi))
	c.Assert(near(lo.Lng.Degrees(), 1.52109), Equals, true, Commentf("lo = %v", lo))
	c.Assert(near(hi.Lng.Degrees(), 55.30927), Equals, true, Commentf("hi = %v", hi))

	// The probe is centred on the bounds and 1° in radius, so it holds no city here.
	c.Assert(st.Probe.ContainsLatLng(st.Bounds.Center()), Equals, true)
	c.Assert(st.InBox, Equals, int64(0))
}

func (s *ValidateSuite) TestProbeFindsCities(c *C) {
	s.importLines(c, lineElTarter, lineAndorra)

	st, err := Validate(context.Background(), s.store)
	c.Assert(err, IsNil)
	// Both Andorran towns sit within a degree of the bounds centre.
	c.Assert(st.InBox, Equals, int64(2))
}

func (s *ValidateSuite) TestValidateEmpty(c *C) {
	s.importLines(c)

	st, err := Validate(context.Background(), s.store)
	c.Assert(err, IsNil)
	c.Assert(st.Cities, Equals, int64(0))
	c.Assert(st.Bounds.IsEmpty(), Equals, true)
	c.Assert(st.Probe.ContainsLatLng(s2.LatLngFromDegrees(0, 0)), Equals, true)
}

func (s *ValidateSuite) TestMissingStore(c *C) {
	_, err := Validate(context.Background(), s.store)
	c.Assert(err, NotNil)
}

func (s *ValidateSuite) TestMissingIndex(c *C) {
	db := openTestDB(c, s.store)
	_, err := db.Exec(createTableSQL)
	c.Assert(err, IsNil)
	c.Assert(db.Close(), IsNil)

	_, err = Validate(context.Background(), s.store)
	c.Assert(err, ErrorMatches, `index idx_lat_lng covers \(\), want \(lat,lng\)`)
}

func (s *ValidateSuite) TestWrongSchema(c *C) {
	db := openTestDB(c, s.store)
	_, err := db.Exec(`CREATE TABLE cities (name TEXT, country TEXT, lat REAL)`)
	c.Assert(err, IsNil)
	c.Assert(db.Close(), IsNil)

	_, err = Validate(context.Background(), s.store)
	c.Assert(err, ErrorMatches, `table cities has 3 columns, want 4`)
}

func (s *ValidateSuite) TestNoTable(c *C) {
	db := openTestDB(c, s.store)
	_, err := db.Exec(`CREATE TABLE notes (body TEXT)`)
	c.Assert(err, IsNil)
	c.Assert(db.Close(), IsNil)

	_, err = Validate(context.Background(), s.store)
	c.Assert(err, ErrorMatches, `table cities not found`)
}

func (s *ValidateSuite) TestRectArgs(c *C) {
	r := s2.RectFromCenterSize(s2.LatLngFromDegrees(10, 20), s2.LatLngFromDegrees(2, 4))
	args := rectArgs(r)
	c.Assert(args, HasLen, 4)
	c.Assert(near(args[0].(float64), 9), Equals, true)
	c.Assert(near(args[1].(float64), 11), Equals, true)
	c.Assert(near(args[2].(float64), 18), Equals, true)
	c.Assert(near(args[3].(float64), 22), Equals, true)

	// Across the antimeridian the longitude range is widened.
	wrap := s2.RectFromCenterSize(s2.LatLngFromDegrees(0, 179), s2.LatLngFromDegrees(2, 4))
	args = rectArgs(wrap)
	c.Assert(args[2], Equals, float64(-180))
	c.Assert(args[3], Equals, float64(180))
}
