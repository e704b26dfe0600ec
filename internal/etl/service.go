package etl

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/urbanflux/complaints-etl/internal/config"
	"github.com/urbanflux/complaints-etl/internal/database"
	"github.com/urbanflux/complaints-etl/internal/models"
	"github.com/urbanflux/complaints-etl/internal/parser"
	"github.com/urbanflux/complaints-etl/internal/transform"
	"github.com/urbanflux/complaints-etl/pkg/checksum"
)

// Service drives one pipeline run end to end: read chunks, transform,
// load, and track the run record. Chunks are processed strictly
// sequentially in source order; the only suspension points are source
// reads and store round-trips.
type Service struct {
	store database.Store
	cfg   config.Config
}

func NewService(store database.Store, cfg config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// Result summarizes one finished run.
type Result struct {
	RunID  uuid.UUID
	Mode   models.RunMode
	Stats  models.RunStats
	DryRun bool
}

// Execute runs the pipeline against one source file. A row-level failure
// is counted and dropped; a store failure marks the run failed and stops.
// Dry runs never write to the store: they still read the watermark in
// incremental mode so the preview covers the same window a real run
// would, but record nothing.
func (s *Service) Execute(inputPath string) (*Result, error) {
	startTime := time.Now()

	// Step 0: fingerprint the input so the run record names exactly what
	// it consumed. Unreadable files surface again at open below.
	fileChecksum, err := checksum.GetFileChecksum(inputPath)
	if err != nil {
		log.Printf("WARN: could not checksum input %s: %v", inputPath, err)
	}

	// Step 1: resolve the incremental window before the run starts. This
	// read happens in dry runs too so they preview the incremental
	// window, not full-run counts.
	var watermark *models.Watermark
	if s.cfg.Mode == models.ModeIncremental {
		watermark, err = s.store.LastWatermark()
		if err != nil {
			return nil, fmt.Errorf("failed to query last watermark: %w", err)
		}
		if watermark == nil || watermark.LastCreatedAt == nil {
			log.Println("No completed run found, incremental run starts from the beginning")
		} else {
			log.Printf("Resuming after watermark %s", watermark.LastCreatedAt.Format(time.RFC3339))
		}
	}

	// Step 2: persist the run identity before any processing.
	runID := uuid.Nil
	if !s.cfg.DryRun {
		runID, err = s.store.StartRun(s.cfg.Mode, inputPath, fileChecksum)
		if err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		log.Printf("Started %s run %s for %s", s.cfg.Mode, runID, inputPath)
	}

	result, err := s.process(inputPath, runID, watermark)
	if err != nil {
		if runID != uuid.Nil {
			if failErr := s.store.FailRun(runID, err.Error()); failErr != nil {
				log.Printf("ERROR: could not mark run %s failed: %v", runID, failErr)
			}
		}
		return nil, err
	}

	log.Printf("Run finished in %s: %+v", time.Since(startTime), result.Stats)
	return result, nil
}

func (s *Service) process(inputPath string, runID uuid.UUID, watermark *models.Watermark) (*Result, error) {
	// Step 3: open the source stream. Only a failure here aborts the
	// whole stream.
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", inputPath, err)
	}
	defer file.Close()

	decoded, err := parser.DecodeReader(file, s.cfg.SourceEncoding)
	if err != nil {
		return nil, err
	}

	reader, err := parser.NewChunkReader(decoded, s.cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", inputPath, err)
	}

	// Step 4: one transform processor per run; its dedup set spans all
	// chunks and dies with the run.
	processor := transform.NewProcessor()
	defer processor.Reset()

	var (
		totals        models.RunStats
		lastCreatedAt *time.Time
		lastUniqueKey *int64
		chunkCount    int
	)

	// Step 5: read, transform, load, strictly in source order.
	for {
		chunk, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		chunkCount++

		records := filterByWatermark(chunk.Records, watermark)
		clean, stats := processor.Process(records, chunk.Stats)

		if !s.cfg.DryRun {
			inserted, err := s.store.BulkInsertComplaints(clean)
			if err != nil {
				return nil, fmt.Errorf("failed to load chunk %d: %w", chunkCount, err)
			}
			stats.RowsInserted += inserted
		} else {
			stats.RowsInserted += int64(len(clean))
		}

		for _, record := range clean {
			if lastCreatedAt == nil || record.CreatedAt.After(*lastCreatedAt) ||
				(record.CreatedAt.Equal(*lastCreatedAt) && record.UniqueKey > *lastUniqueKey) {
				createdAt := record.CreatedAt
				key := record.UniqueKey
				lastCreatedAt = &createdAt
				lastUniqueKey = &key
			}
		}

		totals.Merge(stats)
		log.Printf("Chunk %d: %d read, %d clean, %d inserted", chunkCount, stats.RowsRead, len(clean), stats.RowsInserted)
	}

	// Step 6: a run with zero rows still completes with all-zero stats.
	if runID != uuid.Nil {
		if err := s.store.CompleteRun(runID, totals, lastCreatedAt, lastUniqueKey); err != nil {
			return nil, fmt.Errorf("failed to complete run: %w", err)
		}
	}

	return &Result{RunID: runID, Mode: s.cfg.Mode, Stats: totals, DryRun: s.cfg.DryRun}, nil
}

// filterByWatermark drops records at or before the resume point so an
// incremental run only transforms its own window. Filtered records were
// read and parsed; they never enter the transform accounting.
func filterByWatermark(records []*models.Complaint, watermark *models.Watermark) []*models.Complaint {
	if watermark == nil || watermark.LastCreatedAt == nil {
		return records
	}

	admitted := make([]*models.Complaint, 0, len(records))
	for _, record := range records {
		if watermark.Admits(record.CreatedAt, record.UniqueKey) {
			admitted = append(admitted, record)
		}
	}
	return admitted
}
