package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrMissingColumn is returned when a CSV file lacks a column Sort needs.
var ErrMissingColumn = errors.New("dataset: missing column")

// RepairColumns are the free-text columns checked for Latin-1 mojibake.
var RepairColumns = []string{"student_email", "questions", "teacher_email", "answers"}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ThreadCount is the number of rows of one thread.
type ThreadCount struct {
	ThreadID string
	Rows     int
}

// SortReport summarizes a Sort run.
type SortReport struct {
	Rows          int
	Threads       int
	RepairedCells int
	Unparsed      int // rows whose created_at could not be parsed
	TopThreads    []ThreadCount
}

type row struct {
	fields  []string
	created time.Time
	parsed  bool
}

// Sort reads the conversation CSV at src, orders its rows by thread_id and
// created_at, repairs mis-decoded Vietnamese text and writes the result to
// dst. thread_id values are trimmed. Rows with an unparseable created_at
// sort after the rest of their thread in input order. No row is dropped.
func Sort(src, dst string) (*SortReport, error) {
	header, records, err := readAll(src)
	if err != nil {
		return nil, err
	}

	threadCol := indexOf(header, "thread_id")
	createdCol := indexOf(header, "created_at")
	if threadCol < 0 {
		return nil, fmt.Errorf("%s: thread_id: %w", src, ErrMissingColumn)
	}
	if createdCol < 0 {
		return nil, fmt.Errorf("%s: created_at: %w", src, ErrMissingColumn)
	}

	var repairCols []int
	for _, name := range RepairColumns {
		if i := indexOf(header, name); i >= 0 {
			repairCols = append(repairCols, i)
		}
	}

	report := &SortReport{Rows: len(records)}
	rows := make([]row, len(records))
	for i, fields := range records {
		fields[threadCol] = strings.TrimSpace(fields[threadCol])
		for _, col := range repairCols {
			if fixed, ok := RepairLatin1(fields[col]); ok {
				fields[col] = fixed
				report.RepairedCells++
			}
		}
		created, ok := parseTime(fields[createdCol])
		if !ok {
			report.Unparsed++
		}
		rows[i] = row{fields: fields, created: created, parsed: ok}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if ta, tb := a.fields[threadCol], b.fields[threadCol]; ta != tb {
			return ta < tb
		}
		if a.parsed != b.parsed {
			return a.parsed
		}
		return a.parsed && a.created.Before(b.created)
	})

	report.TopThreads = topThreads(rows, threadCol, 5)
	report.Threads = countThreads(rows, threadCol)

	if err := writeAll(dst, header, rows); err != nil {
		return nil, err
	}
	return report, nil
}

// RepairLatin1 undoes UTF-8 text that was decoded as Latin-1. The text is
// re-encoded as ISO-8859-1 and the bytes are kept only if they form valid
// UTF-8 different from the input.
func RepairLatin1(s string) (string, bool) {
	if s == "" {
		return s, false
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s, false
	}
	if raw == s || !utf8.ValidString(raw) {
		return s, false
	}
	return raw, true
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func readAll(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(bom))))
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%s: empty file", path)
	}
	return all[0], all[1:], nil
}

func writeAll(path string, header []string, rows []row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.fields); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func indexOf(header []string, name string) int {
	for i, col := range header {
		if strings.TrimSpace(col) == name {
			return i
		}
	}
	return -1
}

func countThreads(rows []row, col int) int {
	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.fields[col]] = true
	}
	return len(seen)
}

func topThreads(rows []row, col, n int) []ThreadCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.fields[col]]++
	}
	out := make([]ThreadCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, ThreadCount{ThreadID: id, Rows: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rows != out[j].Rows {
			return out[i].Rows > out[j].Rows
		}
		return out[i].ThreadID < out[j].ThreadID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
