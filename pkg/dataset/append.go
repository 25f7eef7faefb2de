// Package dataset maintains the CSV question/answer datasets that sit next
// to the chunked regulation.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// bom is written at the start of every CSV file so spreadsheet tools pick
// UTF-8 for Vietnamese text.
const bom = "\ufeff"

// ErrColumnMismatch is returned when a record has a field the CSV header
// does not know.
var ErrColumnMismatch = errors.New("dataset: record column not in header")

// DefaultColumns is the header of a new QA dataset file.
var DefaultColumns = []string{
	"id", "question", "answer", "category_main", "category_sub", "tags",
	"program", "course_codes", "year", "complexity", "requires_admin", "solution_type",
}

// Record is one dataset row keyed by column name.
type Record map[string]string

// UnmarshalJSON accepts scalar JSON values of any type; numbers and booleans
// keep their literal text and null becomes an empty cell.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Record, len(raw))
	for key, value := range raw {
		value = bytes.TrimSpace(value)
		switch {
		case bytes.Equal(value, []byte("null")):
			out[key] = ""
		case len(value) > 0 && value[0] == '"':
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
			out[key] = s
		case len(value) > 0 && (value[0] == '{' || value[0] == '['):
			return fmt.Errorf("field %s: nested values are not supported", key)
		default:
			out[key] = string(value)
		}
	}
	*r = out
	return nil
}

// DecodeRecords reads a JSON array of records.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}

// Append adds records to the CSV file at path without rewriting existing
// rows. Fields are written in the file's header order and missing fields
// are left empty. Every record is checked against the header before
// anything is written. A missing file, or one holding only whitespace, is
// written from scratch with DefaultColumns as its header.
func Append(path string, records []Record) (int, error) {
	header, existing, err := readHeader(path)
	if err != nil {
		return 0, err
	}
	if header == nil {
		header = DefaultColumns
	}

	index := make(map[string]bool, len(header))
	for _, col := range header {
		index[col] = true
	}
	for i, rec := range records {
		for key := range rec {
			if !index[key] {
				return 0, fmt.Errorf("record %d: %q: %w", i, key, ErrColumnMismatch)
			}
		}
	}
	if len(records) == 0 {
		return 0, nil
	}

	// A blank file is rewritten from the start so the BOM and header open it.
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if existing == nil {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	switch {
	case existing == nil:
		if _, err := w.WriteString(bom); err != nil {
			return 0, err
		}
	case len(existing) > 0 && existing[len(existing)-1] != '\n':
		if err := w.WriteByte('\n'); err != nil {
			return 0, err
		}
	}

	cw := csv.NewWriter(w)
	if existing == nil {
		if err := cw.Write(header); err != nil {
			return 0, fmt.Errorf("writing header: %w", err)
		}
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, col := range header {
			row[i] = rec[col]
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("writing record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(records), f.Close()
}

// readHeader returns the header of the CSV file at path and its raw
// contents. Both are nil when the file is missing or empty.
func readHeader(path string) ([]string, []byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, []byte(bom)))) == 0 {
		return nil, nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], bom)
	return header, data, nil
}
