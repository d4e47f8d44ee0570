package geonamesdb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// GeoNames dump column offsets (see https://download.geonames.org/export/dump/readme.txt).
const (
	colGeonameID = iota
	colName
	colASCIIName
	colAlternateNames
	colLatitude
	colLongitude
	colFeatureClass
	colFeatureCode
	colCountryCode
	colCC2
	colAdmin1
	colAdmin2
	colAdmin3
	colAdmin4
	colPopulation
	colElevation
	colDEM
	colTimezone
	colModificationDate

	// geonamesColumns is the full width of a GeoNames dump line.
	geonamesColumns
)

// minFields is the number of fields a line needs for every column we persist.
const minFields = colCountryCode + 1

var (
	// ErrShortRecord is returned for lines with fewer than 9 tab-separated fields.
	ErrShortRecord = errors.New("too few fields")
	// ErrInvalidUTF8 is returned for lines that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// Record is one line of a GeoNames dump with every column addressed by name.
// Columns past the country code are optional and left empty when a line
// stops early. Only Latitude and Longitude are converted.
type Record struct {
	GeonameID        string
	Name             string
	ASCIIName        string
	AlternateNames   string
	Latitude         float64
	Longitude        float64
	FeatureClass     string
	FeatureCode      string
	CountryCode      string
	CC2              string
	Admin1           string
	Admin2           string
	Admin3           string
	Admin4           string
	Population       string
	Elevation        string
	DEM              string
	Timezone         string
	ModificationDate string
}

// City is the projection of a Record that is stored in the cities table.
type City struct {
	Name    string
	Country string
	Lat     float64
	Lng     float64
}

// City returns the stored projection of r.
func (r Record) City() City {
	return City{
		Name:    r.Name,
		Country: r.CountryCode,
		Lat:     r.Latitude,
		Lng:     r.Longitude,
	}
}

// ParseRecord parses a single tab-separated GeoNames line.
func ParseRecord(line string) (Record, error) {
	var r Record
	if !utf8.ValidString(line) {
		return r, ErrInvalidUTF8
	}

	fields := strings.SplitN(line, "\t", geonamesColumns)
	if len(fields) < minFields {
		return r, fmt.Errorf("%w: got %d, want at least %d", ErrShortRecord, len(fields), minFields)
	}

	lat, err := parseCoord(fields[colLatitude])
	if err != nil {
		return r, fmt.Errorf("parsing latitude: %w", err)
	}
	lng, err := parseCoord(fields[colLongitude])
	if err != nil {
		return r, fmt.Errorf("parsing longitude: %w", err)
	}

	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	r = Record{
		GeonameID:        fields[colGeonameID],
		Name:             fields[colName],
		ASCIIName:        fields[colASCIIName],
		AlternateNames:   fields[colAlternateNames],
		Latitude:         lat,
		Longitude:        lng,
		FeatureClass:     fields[colFeatureClass],
		FeatureCode:      fields[colFeatureCode],
		CountryCode:      fields[colCountryCode],
		CC2:              field(colCC2),
		Admin1:           field(colAdmin1),
		Admin2:           field(colAdmin2),
		Admin3:           field(colAdmin3),
		Admin4:           field(colAdmin4),
		Population:       field(colPopulation),
		Elevation:        field(colElevation),
		DEM:              field(colDEM),
		Timezone:         field(colTimezone),
		ModificationDate: field(colModificationDate),
	}
	return r, nil
}

// parseCoord parses a decimal degree value. Surrounding whitespace is ignored.
func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
