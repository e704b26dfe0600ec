package transform

import (
	"log"

	"github.com/urbanflux/complaints-etl/internal/models"
)

// Processor applies deduplication and semantic validation to chunks of
// parsed records. One instance serves exactly one run: the dedup set
// persists across chunks so a key is admitted at most once per run,
// regardless of chunk boundaries. Chunks must be fed in source order.
type Processor struct {
	dedup *Deduplicator
}

func NewProcessor() *Processor {
	return &Processor{dedup: NewDeduplicator()}
}

// Process filters one chunk. For every record, in order: the dedup check
// first, then semantic validation. Excluded records increment the matching
// counters on stats; admitted records increment RowsValidated. The input
// stats are merged into, never overwritten.
func (p *Processor) Process(records []*models.Complaint, stats models.RunStats) ([]*models.Complaint, models.RunStats) {
	clean := make([]*models.Complaint, 0, len(records))

	for _, record := range records {
		if p.dedup.IsDuplicate(record.UniqueKey) {
			stats.RowsDuplicated++
			continue
		}

		if err := Validate(record); err != nil {
			stats.RowsRejected++
			stats.ValidationErrors++
			log.Printf("WARN: record %d failed validation: %v", record.UniqueKey, err)
			continue
		}

		stats.RowsValidated++
		clean = append(clean, record)
	}

	return clean, stats
}

// Validate re-checks the domain rules on an already-parsed record. The
// parser enforces most of these upstream; records arriving through other
// paths get the same treatment.
func Validate(record *models.Complaint) error {
	if record.UniqueKey <= 0 {
		return models.NewSemanticError("unique_key", "must be positive")
	}
	if record.ComplaintType == "" {
		return models.NewSemanticError("complaint_type", "must not be empty")
	}
	if record.ClosedAt != nil && record.ClosedAt.Before(record.CreatedAt) {
		return models.NewSemanticError("closed_date", "closed before created")
	}
	if record.Borough != nil {
		if _, ok := models.ParseBorough(record.Borough.String()); !ok {
			return models.NewSemanticError("borough", "not a known borough")
		}
	}
	if p := record.Position; p != nil {
		if models.NewPosition(p.Latitude, p.Longitude) == nil {
			return models.NewSemanticError("position", "outside bounding box")
		}
	}
	return nil
}

// UniqueKeys returns the number of distinct keys this run has seen.
func (p *Processor) UniqueKeys() int {
	return p.dedup.UniqueCount()
}

// Reset clears all per-run state so the instance can serve a fresh run.
func (p *Processor) Reset() {
	p.dedup.Clear()
}
