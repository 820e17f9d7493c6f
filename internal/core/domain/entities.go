package domain

import (
	"sort"
	"time"
)

// Column names of the fire detection dataset.
const (
	ColAcqDate    = "ACQ_DATE"
	ColLatitude   = "LATITUDE"
	ColLongitude  = "LONGITUDE"
	ColBrightness = "BRIGHTNESS"
	ColFRP        = "FRP"
	ColGeometry   = "geometry"
	ColConfidence = "CONFIDENCE"
	ColDayNight   = "DAYNIGHT"
	ColSatellite  = "SATELLITE"
	ColInstrument = "INSTRUMENT"
)

// RawFireRow is one row as read from a fire dataset source, before decoding.
type RawFireRow struct {
	AcqDate    string
	Latitude   float64
	Longitude  float64
	Brightness float64
	FRP        float64
	Geometry   []byte // little-endian WKB point
	Confidence string
	DayNight   string
	Satellite  string
	Instrument string
}

// FirePoint is a decoded fire detection with derived time fields.
// AcqDate, Year, Month and Season are nil when ACQ_DATE could not be parsed.
type FirePoint struct {
	AcqDateRaw string     `json:"acq_date_raw"`
	AcqDate    *time.Time `json:"acq_date,omitempty"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Brightness float64    `json:"brightness"`
	FRP        float64    `json:"frp"`
	Geometry   GeoPoint   `json:"geometry"`
	Confidence string     `json:"confidence,omitempty"`
	DayNight   string     `json:"daynight,omitempty"`
	Satellite  string     `json:"satellite,omitempty"`
	Instrument string     `json:"instrument,omitempty"`
	Year       *int       `json:"year,omitempty"`
	Month      *int       `json:"month,omitempty"`
	Season     *Season    `json:"season,omitempty"`
}

// Dated reports whether the acquisition date was parsed.
func (p *FirePoint) Dated() bool {
	return p.AcqDate != nil
}

// WarningKind classifies a per-row load warning.
type WarningKind string

const (
	WarningDate     WarningKind = "date"
	WarningGeometry WarningKind = "geometry"
)

// RowWarning records a recovered per-row problem found while loading.
type RowWarning struct {
	Row    int         `json:"row"`
	Kind   WarningKind `json:"kind"`
	Column string      `json:"column"`
	Value  string      `json:"value,omitempty"`
	Reason string      `json:"reason"`
}

// FireTable is the fully materialized fire dataset. It is never mutated after load.
type FireTable struct {
	Source       string        `json:"source"`
	Rows         []FirePoint   `json:"-"`
	Warnings     []RowWarning  `json:"warnings"`
	LoadedAt     time.Time     `json:"loaded_at"`
	LoadDuration time.Duration `json:"load_duration"`
}

// Len returns the number of rows.
func (t *FireTable) Len() int {
	return len(t.Rows)
}

// Years returns the distinct acquisition years in ascending order.
func (t *FireTable) Years() []int {
	seen := make(map[int]struct{})
	for i := range t.Rows {
		if y := t.Rows[i].Year; y != nil {
			seen[*y] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
