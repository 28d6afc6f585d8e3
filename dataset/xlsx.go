package dataset

import (
	"fmt"
	"io"
	"iter"

	"github.com/xuri/excelize/v2"
)

const sheetName = "dataset"

// WriteXLSX writes rows as a single-sheet workbook. Numeric columns are
// stored as numbers so spreadsheets can sort and filter them.
func WriteXLSX(w io.Writer, l Layout, rows iter.Seq2[Record, error]) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return 0, err
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return 0, fmt.Errorf("stream writer: %w", err)
	}

	header := l.Header()
	if err := sw.SetRow("A1", toCells(header, nil)); err != nil {
		return 0, err
	}
	n := 0
	for rec, err := range rows {
		if err != nil {
			return n, err
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return n, err
		}
		if err := sw.SetRow(cell, toCells(header, &rec)); err != nil {
			return n, err
		}
		n++
	}
	if err := sw.Flush(); err != nil {
		return n, err
	}
	if _, err := f.WriteTo(w); err != nil {
		return n, fmt.Errorf("write workbook: %w", err)
	}
	return n, nil
}

func toCells(header []string, rec *Record) []interface{} {
	out := make([]interface{}, len(header))
	for i, c := range header {
		switch {
		case rec == nil:
			out[i] = c
		case c == ColAreaAcres:
			out[i] = rec.AreaAcres
		case isDayColumn(c):
			out[i] = rec.Days
		case c == ColIrrigationCount:
			if v, ok := rec.IrrigationCount.Value(); ok {
				out[i] = v
			} else {
				out[i] = ""
			}
		default:
			out[i] = rec.value(c)
		}
	}
	return out
}

// ReadXLSX parses the first sheet of a workbook written in any layout.
func ReadXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	return readTable(rows)
}
