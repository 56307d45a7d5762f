package growth

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCSV parses headerless two-column (Time, Volume) records.
func ReadCSV(r io.Reader, name string) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return Series{}, fmt.Errorf("read %s: %w", name, err)
	}

	s := Series{Name: name, Records: make([]Record, 0, len(rows))}
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			return Series{}, fmt.Errorf("read %s: row %d has %d columns, want 2", name, i, len(row))
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return Series{}, fmt.Errorf("read %s: row %d time: %w", name, i, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return Series{}, fmt.Errorf("read %s: row %d volume: %w", name, i, err)
		}
		s.Records = append(s.Records, Record{Time: t, Volume: v})
	}
	return s, nil
}

// LoadCSV reads a specimen file from disk.
func LoadCSV(path, name string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, err
	}
	defer f.Close()
	return ReadCSV(f, name)
}

// Specimen describes where a specimen's data lives and which rows to drop.
type Specimen struct {
	Name    string
	Path    string
	Exclude []int
}

// Load reads, trims and validates a specimen.
func (sp Specimen) Load() (Series, error) {
	s, err := LoadCSV(sp.Path, sp.Name)
	if err != nil {
		return Series{}, err
	}
	if len(sp.Exclude) > 0 {
		if s, err = s.Drop(sp.Exclude...); err != nil {
			return Series{}, err
		}
	}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}
