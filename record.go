package audiosweep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"
)

// TimeLayout is the creation timestamp layout of the record file.
const TimeLayout = "2006-01-02 15:04:05"

// Default record file names.
const (
	DefaultListingFile   = "AudioFileDetails.csv"
	DefaultRemainingFile = "RemainingAudioFileDetails.csv"
)

var recordHeader = []string{"Filename", "Created At"}

// Record describes one remote audio resource as known locally.
type Record struct {
	Identifier string
	CreatedAt  time.Time
}

// RecordSet is the ordered content of a record file.
type RecordSet []Record

// Identifiers returns the identifiers of rs in order.
func (rs RecordSet) Identifiers() []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.Identifier
	}
	return ids
}

// ReadRecords decodes a record file. The first row is always the header. Any
// data row with fewer than two columns or an unparsable timestamp fails the
// whole read with a ParseError.
func ReadRecords(r io.Reader) (RecordSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		records RecordSet
		line    int
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, newError(ParseError, "read records", "", fmt.Errorf("line %d: %w", line, err))
		}
		if line == 1 {
			continue
		}
		if len(row) < 2 {
			return nil, newError(ParseError, "read records", "",
				fmt.Errorf("line %d: expected 2 columns, got %d", line, len(row)))
		}

		createdAt, err := time.Parse(TimeLayout, row[1])
		if err != nil {
			return nil, newError(ParseError, "read records", row[0],
				fmt.Errorf("line %d: invalid creation time %q: %w", line, row[1], err))
		}
		records = append(records, Record{Identifier: row[0], CreatedAt: createdAt})
	}

	return records, nil
}

// WriteRecords encodes rs with its header row.
func WriteRecords(w io.Writer, rs RecordSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rs {
		if err := cw.Write([]string{r.Identifier, r.CreatedAt.Format(TimeLayout)}); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.Identifier, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
