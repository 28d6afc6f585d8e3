package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"fertiplan/nutrient"
)

// Layout selects a table header. The zero Layout is the combined multi-crop
// header; a single-crop layout names the day column after the crop and drops
// irrigation_count for rice, which does not track it.
type Layout struct {
	crop nutrient.Crop
}

// Combined is the merged wheat+rice layout used for training.
var Combined = Layout{}

// CropLayout is the per-crop layout written by a single-crop generator run.
func CropLayout(c nutrient.Crop) Layout { return Layout{crop: c} }

// Header returns the column names for l.
func (l Layout) Header() []string {
	if l == Combined {
		return Columns
	}
	out := make([]string, 0, len(Columns))
	for _, c := range Columns {
		switch {
		case c == ColDaysSinceStart:
			out = append(out, l.crop.DayColumn())
		case c == ColIrrigationCount && l.crop == nutrient.Rice:
		default:
			out = append(out, c)
		}
	}
	return out
}

func (l Layout) row(r Record) []string {
	h := l.Header()
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = r.value(c)
	}
	return out
}

// WriteCSV streams rows to w under layout l and returns how many rows were
// written.
func WriteCSV(w io.Writer, l Layout, rows iter.Seq2[Record, error]) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(l.Header()); err != nil {
		return 0, err
	}
	n := 0
	for rec, err := range rows {
		if err != nil {
			return n, err
		}
		if err := cw.Write(l.row(rec)); err != nil {
			return n, err
		}
		n++
	}
	cw.Flush()
	return n, cw.Error()
}

// ReadCSV parses a table written in any layout, including the per-crop
// files and the merged training file.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty table")
		}
		return nil, err
	}
	idx := indexHeader(header)

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRow(idx, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func readTable(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("empty table")
	}
	idx := indexHeader(rows[0])
	out := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(idx, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
