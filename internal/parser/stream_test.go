package parser

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const csvHeader = "Unique Key,Created Date,Closed Date,Complaint Type,Descriptor,Borough,Latitude,Longitude"

type CSVRow struct {
	UniqueKey     string
	CreatedDate   string
	ClosedDate    string
	ComplaintType string
	Descriptor    string
	Borough       string
	Latitude      string
	Longitude     string
}

func newDefaultCSVRow() CSVRow {
	return CSVRow{
		UniqueKey:     "1001",
		CreatedDate:   "2025-01-01 10:00:00",
		ClosedDate:    "2025-01-01 12:00:00",
		ComplaintType: "Noise",
		Descriptor:    "Loud Music",
		Borough:       "MANHATTAN",
		Latitude:      "40.7580",
		Longitude:     "-73.9855",
	}
}

func createTestCSVContent(rows []CSVRow) string {
	var content strings.Builder
	content.WriteString(csvHeader + "\n")

	for _, rowData := range rows {
		row := []string{
			rowData.UniqueKey,
			rowData.CreatedDate,
			rowData.ClosedDate,
			rowData.ComplaintType,
			rowData.Descriptor,
			rowData.Borough,
			rowData.Latitude,
			rowData.Longitude,
		}
		content.WriteString(fmt.Sprintf("%s\n", strings.Join(row, ",")))
	}

	return content.String()
}

func makeRows(n int, startKey int) []CSVRow {
	rows := make([]CSVRow, 0, n)
	for i := 0; i < n; i++ {
		row := newDefaultCSVRow()
		row.UniqueKey = fmt.Sprintf("%d", startKey+i)
		rows = append(rows, row)
	}
	return rows
}

func readAll(t *testing.T, reader *ChunkReader) []*Chunk {
	t.Helper()
	var chunks []*Chunk
	for {
		chunk, err := reader.Next()
		if err == io.EOF {
			return chunks
		}
		assert.NoError(t, err)
		chunks = append(chunks, chunk)
	}
}

func TestChunkReaderSingleChunk(t *testing.T) {
	content := createTestCSVContent(makeRows(3, 1))
	reader, err := NewChunkReader(strings.NewReader(content), 10)
	assert.NoError(t, err)

	chunks := readAll(t, reader)
	assert.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Records, 3)
	assert.Equal(t, int64(3), chunks[0].Stats.RowsRead)
	assert.Equal(t, int64(3), chunks[0].Stats.RowsParsed)
	assert.Equal(t, int64(0), chunks[0].Stats.ParseErrors)
}

func TestChunkReaderSplitsAtChunkSize(t *testing.T) {
	content := createTestCSVContent(makeRows(7, 1))
	reader, err := NewChunkReader(strings.NewReader(content), 3)
	assert.NoError(t, err)

	chunks := readAll(t, reader)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Records, 3)
	assert.Len(t, chunks[1].Records, 3)
	assert.Len(t, chunks[2].Records, 1)

	// Source order is preserved across and within chunks.
	var keys []int64
	for _, chunk := range chunks {
		for _, record := range chunk.Records {
			keys = append(keys, record.UniqueKey)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, keys)
}

func TestChunkReaderCountsParseErrorsPerChunk(t *testing.T) {
	rows := makeRows(4, 1)
	rows[1].UniqueKey = "not-a-number"
	rows[3].CreatedDate = "whenever"

	content := createTestCSVContent(rows)
	reader, err := NewChunkReader(strings.NewReader(content), 10)
	assert.NoError(t, err)

	chunks := readAll(t, reader)
	assert.Len(t, chunks, 1)
	stats := chunks[0].Stats
	assert.Equal(t, int64(4), stats.RowsRead)
	assert.Equal(t, int64(2), stats.RowsParsed)
	assert.Equal(t, int64(2), stats.ParseErrors)
	assert.Equal(t, stats.RowsRead, stats.RowsParsed+stats.ParseErrors)
	assert.Len(t, chunks[0].Records, 2)
}

func TestChunkReaderHeaderOnlySource(t *testing.T) {
	reader, err := NewChunkReader(strings.NewReader(csvHeader+"\n"), 10)
	assert.NoError(t, err)

	chunk, err := reader.Next()
	assert.Nil(t, chunk)
	assert.Equal(t, io.EOF, err)
}

func TestChunkReaderAllRowsFailingStillReportsStats(t *testing.T) {
	rows := makeRows(2, 1)
	rows[0].UniqueKey = "x"
	rows[1].UniqueKey = "y"

	reader, err := NewChunkReader(strings.NewReader(createTestCSVContent(rows)), 10)
	assert.NoError(t, err)

	chunk, err := reader.Next()
	assert.NoError(t, err)
	assert.Empty(t, chunk.Records)
	assert.Equal(t, int64(2), chunk.Stats.RowsRead)
	assert.Equal(t, int64(2), chunk.Stats.ParseErrors)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestChunkReaderShortRowsGetEmptyOptionalFields(t *testing.T) {
	content := csvHeader + "\n" + "77,2025-01-01,,Noise\n"
	reader, err := NewChunkReader(strings.NewReader(content), 10)
	assert.NoError(t, err)

	chunks := readAll(t, reader)
	assert.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Records, 1)
	record := chunks[0].Records[0]
	assert.Equal(t, int64(77), record.UniqueKey)
	assert.Nil(t, record.Borough)
	assert.Nil(t, record.Position)
}

func TestChunkReaderReordersColumnsByHeader(t *testing.T) {
	content := "Complaint Type,Unique Key,Created Date\nNoise,42,2025-01-01\n"
	reader, err := NewChunkReader(strings.NewReader(content), 10)
	assert.NoError(t, err)

	chunks := readAll(t, reader)
	assert.Len(t, chunks, 1)
	assert.Equal(t, int64(42), chunks[0].Records[0].UniqueKey)
	assert.Equal(t, "Noise", chunks[0].Records[0].ComplaintType)
}

func TestChunkReaderMissingRequiredColumn(t *testing.T) {
	content := "Unique Key,Descriptor\n1,whatever\n"
	_, err := NewChunkReader(strings.NewReader(content), 10)
	assert.Error(t, err)
}

func TestChunkReaderRejectsNonPositiveChunkSize(t *testing.T) {
	_, err := NewChunkReader(strings.NewReader(csvHeader), 0)
	assert.Error(t, err)
}

// faultyReader serves its wrapped content and then fails every read with
// a persistent error instead of io.EOF.
type faultyReader struct {
	r   io.Reader
	err error
}

func (f *faultyReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF {
		return n, f.err
	}
	return n, err
}

func TestChunkReaderSurfacesSourceFault(t *testing.T) {
	content := createTestCSVContent(makeRows(2, 1))
	src := &faultyReader{r: strings.NewReader(content), err: fmt.Errorf("read: connection reset")}

	reader, err := NewChunkReader(src, 10)
	assert.NoError(t, err)

	chunk, err := reader.Next()
	assert.Nil(t, chunk)
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
	assert.Contains(t, err.Error(), "connection reset")

	// The stream is dead after a source fault; later calls terminate
	// instead of re-reading the fault forever.
	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeReaderLatin1(t *testing.T) {
	// "Café" in Latin-1: 0xE9 for é.
	raw := []byte{'C', 'a', 'f', 0xE9}
	decoded, err := DecodeReader(strings.NewReader(string(raw)), "latin-1")
	assert.NoError(t, err)

	out, err := io.ReadAll(decoded)
	assert.NoError(t, err)
	assert.Equal(t, "Café", string(out))
}

func TestDecodeReaderUnknownEncoding(t *testing.T) {
	_, err := DecodeReader(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}
