package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// dateLayouts are tried in order when parsing ACQ_DATE.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// ParseAcqDate parses an acquisition date into a UTC calendar date.
func ParseAcqDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DecodePoint decodes a WKB point into a coordinate. An empty point (NaN
// coordinates) or any non-finite coordinate is a decode failure.
func DecodePoint(b []byte) (domain.GeoPoint, error) {
	if len(b) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("%w: empty value", domain.ErrGeometryDecode)
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: %v", domain.ErrGeometryDecode, err)
	}
	pt, ok := g.(orb.Point)
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("%w: got %s, want Point", domain.ErrGeometryDecode, g.GeoJSONType())
	}
	if !finite(pt.Lon()) || !finite(pt.Lat()) {
		return domain.GeoPoint{}, fmt.Errorf("%w: non-finite coordinate (%v, %v)", domain.ErrGeometryDecode, pt.Lon(), pt.Lat())
	}
	return domain.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// EncodePoint encodes a coordinate as a little-endian WKB point.
func EncodePoint(p domain.GeoPoint) ([]byte, error) {
	return wkb.Marshal(orb.Point{p.Lon, p.Lat}, binary.LittleEndian)
}

// decodeRow converts a raw row. A geometry error drops the row; a date error
// keeps it with nil derived fields. Either way a warning is returned.
func decodeRow(idx int, raw *domain.RawFireRow) (*domain.FirePoint, *domain.RowWarning) {
	geom, err := DecodePoint(raw.Geometry)
	if err != nil {
		return nil, &domain.RowWarning{
			Row:    idx,
			Kind:   domain.WarningGeometry,
			Column: domain.ColGeometry,
			Reason: err.Error(),
		}
	}

	p := &domain.FirePoint{
		AcqDateRaw: raw.AcqDate,
		Latitude:   raw.Latitude,
		Longitude:  raw.Longitude,
		Brightness: raw.Brightness,
		FRP:        raw.FRP,
		Geometry:   geom,
		Confidence: raw.Confidence,
		DayNight:   raw.DayNight,
		Satellite:  raw.Satellite,
		Instrument: raw.Instrument,
	}

	date, err := ParseAcqDate(raw.AcqDate)
	if err != nil {
		return p, &domain.RowWarning{
			Row:    idx,
			Kind:   domain.WarningDate,
			Column: domain.ColAcqDate,
			Value:  raw.AcqDate,
			Reason: err.Error(),
		}
	}

	year, month := date.Year(), int(date.Month())
	season, _ := domain.SeasonForMonth(month)
	p.AcqDate = &date
	p.Year = &year
	p.Month = &month
	p.Season = &season
	return p, nil
}
