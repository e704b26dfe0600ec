package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/urbanflux/complaints-etl/internal/models"
)

// RawRow is one undecoded source row keyed by column. All fields are the
// raw text as read from the source; the zero value stands for a missing
// column.
type RawRow struct {
	UniqueKey     string
	CreatedDate   string
	ClosedDate    string
	ComplaintType string
	Descriptor    string
	Borough       string
	Latitude      string
	Longitude     string
}

// timestampFormats is tried in order; first match wins.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"01/02/2006 03:04:05 PM",
	"2006-01-02T15:04:05",
	"2006-01-02", // date-only, midnight UTC
}

// ParseTimestamp decodes s against the supported formats. All formats are
// interpreted as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range timestampFormats {
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, models.NewFormatError("timestamp", trimmed, "unrecognized timestamp format")
}

// ParseRow converts a raw row into a validated Complaint or fails with a
// classified *models.RowError. Malformed input never panics.
//
// Key, creation timestamp and complaint type are strict; borough and
// position are lenient: unrecognized or out-of-bounds values degrade to
// absence so the rest of the record survives.
func ParseRow(row RawRow) (*models.Complaint, error) {
	keyStr := strings.TrimSpace(row.UniqueKey)
	uniqueKey, err := strconv.ParseInt(keyStr, 10, 64)
	if err != nil {
		return nil, models.NewFormatError("unique_key", keyStr, "not an integer")
	}
	if uniqueKey <= 0 {
		return nil, models.NewSemanticError("unique_key", "must be positive")
	}

	createdAt, err := ParseTimestamp(row.CreatedDate)
	if err != nil {
		return nil, err
	}

	var closedAt *time.Time
	if strings.TrimSpace(row.ClosedDate) != "" {
		t, err := ParseTimestamp(row.ClosedDate)
		if err != nil {
			return nil, err
		}
		if t.Before(createdAt) {
			return nil, models.NewSemanticError("closed_date", "closed before created")
		}
		closedAt = &t
	}

	complaintType := strings.TrimSpace(row.ComplaintType)
	if complaintType == "" {
		return nil, models.NewSemanticError("complaint_type", "must not be empty")
	}

	// Unknown borough strings are dropped, not rejected.
	borough, _ := models.ParseBorough(row.Borough)

	return &models.Complaint{
		UniqueKey:     uniqueKey,
		CreatedAt:     createdAt,
		ClosedAt:      closedAt,
		ComplaintType: complaintType,
		Descriptor:    strings.TrimSpace(row.Descriptor),
		Borough:       borough,
		Position:      parsePosition(row.Latitude, row.Longitude),
	}, nil
}

// parsePosition returns nil unless both coordinates parse and the pair
// lies inside the NYC bounding box.
func parsePosition(latStr, lonStr string) *models.Position {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return nil
	}
	return models.NewPosition(lat, lon)
}
