// Package reference reads the programme's flat CSV reference data into keyed,
// insertion-ordered tables and typed records.
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrMissingColumn = errors.New("missing required column")

// Row is one CSV record addressed by header name. Columns absent from the
// file or short rows read as the empty string.
type Row map[string]string

func (r Row) Get(key string) string {
	return r[key]
}

// Table holds rows keyed by one column, in the order keys were first seen.
type Table struct {
	keys []string
	rows map[string]Row
}

func NewTable() *Table {
	return &Table{rows: make(map[string]Row)}
}

// Put stores row under key. A repeated key replaces the earlier row but keeps
// its original position.
func (t *Table) Put(key string, row Row) {
	if _, ok := t.rows[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.rows[key] = row
}

func (t *Table) Get(key string) (Row, bool) {
	row, ok := t.rows[key]
	return row, ok
}

func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *Table) Len() int {
	return len(t.keys)
}

// Rows returns the rows in key order.
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, len(t.keys))
	for _, key := range t.keys {
		rows = append(rows, t.rows[key])
	}
	return rows
}

// Load reads the CSV at path keyed by the key column. When keep is non-nil,
// rows for which it returns false are skipped.
func Load(path, key string, keep func(Row) bool) (*Table, error) {
	table := NewTable()
	err := readCSV(path, []string{key}, func(row Row) {
		if keep != nil && !keep(row) {
			return
		}
		table.Put(row.Get(key), row)
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// ReadRows reads every row of the CSV at path in file order.
func ReadRows(path string, required ...string) ([]Row, error) {
	var rows []Row
	err := readCSV(path, required, func(row Row) {
		rows = append(rows, row)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func readCSV(path string, required []string, fn func(Row)) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("unable to read header of %s: %w", path, err)
	}
	index := mapHeaders(header)

	missing := missingHeaders(required, index)
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w: %s", path, ErrMissingColumn, strings.Join(missing, ", "))
	}

	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
		fn(parseRow(record, index))
	}
	return nil
}

func mapHeaders(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		index[key] = i
	}
	return index
}

func missingHeaders(required []string, index map[string]int) []string {
	var missing []string
	for _, key := range required {
		if _, ok := index[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func parseRow(record []string, index map[string]int) Row {
	row := make(Row, len(index))
	for name, pos := range index {
		if pos >= len(record) {
			row[name] = ""
			continue
		}
		row[name] = strings.TrimSpace(record[pos])
	}
	return row
}
