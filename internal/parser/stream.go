package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/urbanflux/complaints-etl/internal/models"
)

// Chunk is a bounded-size ordered group of parsed records together with
// the read/parse counters accumulated while producing it.
type Chunk struct {
	Records []*models.Complaint
	Stats   models.RunStats
}

// columnIndex maps the source columns the pipeline cares about to their
// position in the header row. -1 means the column is absent.
type columnIndex struct {
	uniqueKey     int
	createdDate   int
	closedDate    int
	complaintType int
	descriptor    int
	borough       int
	latitude      int
	longitude     int
}

// ChunkReader pulls raw rows from a delimited source, parses them, and
// groups the survivors into chunks of at most chunkSize records. It holds
// one raw row plus the current chunk buffer in memory, reads rows in
// source order, and is not restartable.
type ChunkReader struct {
	reader    *csv.Reader
	cols      columnIndex
	chunkSize int
	done      bool
}

// NewChunkReader reads the header row and resolves the column layout.
// It fails only if the header cannot be read or a required column is
// missing; everything after that is recovered row by row.
func NewChunkReader(r io.Reader, chunkSize int) (*ChunkReader, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	return &ChunkReader{reader: cr, cols: cols, chunkSize: chunkSize}, nil
}

func resolveColumns(header []string) (columnIndex, error) {
	cols := columnIndex{
		uniqueKey: -1, createdDate: -1, closedDate: -1, complaintType: -1,
		descriptor: -1, borough: -1, latitude: -1, longitude: -1,
	}

	for i, name := range header {
		switch normalizeHeader(name) {
		case "unique_key":
			cols.uniqueKey = i
		case "created_date":
			cols.createdDate = i
		case "closed_date":
			cols.closedDate = i
		case "complaint_type":
			cols.complaintType = i
		case "descriptor":
			cols.descriptor = i
		case "borough":
			cols.borough = i
		case "latitude":
			cols.latitude = i
		case "longitude":
			cols.longitude = i
		}
	}

	if cols.uniqueKey < 0 || cols.createdDate < 0 || cols.complaintType < 0 {
		return cols, fmt.Errorf("header is missing required columns (need unique_key, created_date, complaint_type): %v", header)
	}

	return cols, nil
}

// normalizeHeader folds "Unique Key" and "unique_key" into the same name.
func normalizeHeader(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func (cr *ChunkReader) rawRow(record []string) RawRow {
	return RawRow{
		UniqueKey:     field(record, cr.cols.uniqueKey),
		CreatedDate:   field(record, cr.cols.createdDate),
		ClosedDate:    field(record, cr.cols.closedDate),
		ComplaintType: field(record, cr.cols.complaintType),
		Descriptor:    field(record, cr.cols.descriptor),
		Borough:       field(record, cr.cols.borough),
		Latitude:      field(record, cr.cols.latitude),
		Longitude:     field(record, cr.cols.longitude),
	}
}

// Next returns the next chunk in source order, or io.EOF once the source
// is exhausted. Rows that fail structural decoding or field parsing are
// counted in the chunk's stats and dropped; they never abort the stream.
// A fault in the stream itself (the underlying reader erroring rather
// than one row being malformed) is returned so the caller can fail the
// run. The trailing chunk may carry fewer than chunkSize records, and is
// only emitted when it observed at least one row.
func (cr *ChunkReader) Next() (*Chunk, error) {
	if cr.done {
		return nil, io.EOF
	}

	chunk := &Chunk{Records: make([]*models.Complaint, 0, cr.chunkSize)}

	for len(chunk.Records) < cr.chunkSize {
		record, err := cr.reader.Read()
		if err == io.EOF {
			cr.done = true
			break
		}
		var parseErr *csv.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			// Only a row-level *csv.ParseError advances past the bad
			// line; anything else would come back on every call.
			cr.done = true
			return nil, fmt.Errorf("source read failed: %w", err)
		}
		chunk.Stats.RowsRead++
		if err != nil {
			chunk.Stats.ParseErrors++
			log.Printf("WARN: skipping undecodable row: %v", err)
			continue
		}

		complaint, err := ParseRow(cr.rawRow(record))
		if err != nil {
			chunk.Stats.ParseErrors++
			log.Printf("WARN: skipping unparseable row: %v", err)
			continue
		}

		chunk.Stats.RowsParsed++
		chunk.Records = append(chunk.Records, complaint)
	}

	if cr.done && chunk.Stats.RowsRead == 0 {
		return nil, io.EOF
	}

	return chunk, nil
}
