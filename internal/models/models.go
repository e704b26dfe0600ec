package models

import (
	"strings"
	"time"
)

// Borough is the closed set of administrative regions a complaint may
// belong to. Absence of a borough is legal and is represented by a nil
// *Borough, never by an extra variant.
type Borough string

const (
	BoroughBronx        Borough = "BRONX"
	BoroughBrooklyn     Borough = "BROOKLYN"
	BoroughManhattan    Borough = "MANHATTAN"
	BoroughQueens       Borough = "QUEENS"
	BoroughStatenIsland Borough = "STATEN ISLAND"
)

var boroughs = map[string]Borough{
	"BRONX":         BoroughBronx,
	"BROOKLYN":      BoroughBrooklyn,
	"MANHATTAN":     BoroughManhattan,
	"QUEENS":        BoroughQueens,
	"STATEN ISLAND": BoroughStatenIsland,
}

// ParseBorough matches case-insensitively after trimming. Anything outside
// the five known boroughs returns (nil, false); callers treat that as
// "no borough", not as an error.
func ParseBorough(s string) (*Borough, bool) {
	b, ok := boroughs[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return nil, false
	}
	return &b, true
}

func (b Borough) String() string {
	return string(b)
}

// NYC bounding box. Positions outside it cannot be constructed.
const (
	MinLatitude  = 40.4
	MaxLatitude  = 41.2
	MinLongitude = -74.3
	MaxLongitude = -73.4
)

// Position is a latitude/longitude pair guaranteed to lie inside the NYC
// bounding box.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewPosition returns nil if the pair falls outside the bounding box.
// Edges are inclusive.
func NewPosition(lat, lon float64) *Position {
	if lat < MinLatitude || lat > MaxLatitude || lon < MinLongitude || lon > MaxLongitude {
		return nil
	}
	return &Position{Latitude: lat, Longitude: lon}
}

// Complaint is one validated civic-complaint record ready for storage.
// String fields are always trimmed; optional fields are pointers.
type Complaint struct {
	UniqueKey     int64      `json:"unique_key"`
	CreatedAt     time.Time  `json:"created_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	ComplaintType string     `json:"complaint_type"`
	Descriptor    string     `json:"descriptor,omitempty"`
	Borough       *Borough   `json:"borough,omitempty"`
	Position      *Position  `json:"position,omitempty"`
}

// RunStats holds the per-run (and per-chunk) counters. Chunk-level stats
// roll up into run totals via Merge.
type RunStats struct {
	RowsRead         int64 `json:"rows_read"`
	RowsParsed       int64 `json:"rows_parsed"`
	RowsValidated    int64 `json:"rows_validated"`
	RowsInserted     int64 `json:"rows_inserted"`
	RowsDuplicated   int64 `json:"rows_duplicated"`
	RowsRejected     int64 `json:"rows_rejected"`
	ParseErrors      int64 `json:"parse_errors"`
	ValidationErrors int64 `json:"validation_errors"`
}

// Merge adds other's counters into s element-wise.
func (s *RunStats) Merge(other RunStats) {
	s.RowsRead += other.RowsRead
	s.RowsParsed += other.RowsParsed
	s.RowsValidated += other.RowsValidated
	s.RowsInserted += other.RowsInserted
	s.RowsDuplicated += other.RowsDuplicated
	s.RowsRejected += other.RowsRejected
	s.ParseErrors += other.ParseErrors
	s.ValidationErrors += other.ValidationErrors
}
