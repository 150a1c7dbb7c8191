package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser parses reference lists from CSV.
type CSVParser struct{}

// Parse reads CSV from the reader. Expected columns: mhg, year (optional).
// Rows with an empty reference are skipped.
func (p *CSVParser) Parse(r io.Reader) ([]RawReference, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	if _, ok := colIndex["mhg"]; !ok {
		return nil, fmt.Errorf("missing required column: mhg")
	}

	return colIndex, nil
}

// readRecords reads all data rows.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawReference, error) {
	refs := []RawReference{}
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		ref, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		if ref.Reference == "" {
			continue
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// parseRecord converts a CSV record to a RawReference.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawReference, error) {
	ref := RawReference{
		Reference: strings.TrimSpace(getColumn(record, colIndex, "mhg")),
		LineNum:   lineNum,
	}

	yearStr := strings.TrimSpace(getColumn(record, colIndex, "year"))
	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < 0 {
			return RawReference{}, fmt.Errorf("line %d: invalid year %q", lineNum, yearStr)
		}
		ref.Year = year
	}

	return ref, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
