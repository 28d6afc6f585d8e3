package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source is a named table to merge.
type Source struct {
	Name string
	R    io.Reader
}

// Merge reads every source in any layout and writes their rows, in order,
// as one combined CSV table.
func Merge(w io.Writer, sources ...Source) (int, error) {
	var all []Record
	for _, src := range sources {
		recs, err := readAny(src)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", src.Name, err)
		}
		all = append(all, recs...)
	}
	return WriteCSV(w, Combined, Slice(all))
}

// MergeFiles is Merge over file paths; .xlsx files are read as workbooks.
func MergeFiles(w io.Writer, paths ...string) (int, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		sources = append(sources, Source{Name: p, R: f})
	}
	return Merge(w, sources...)
}

func readAny(src Source) ([]Record, error) {
	if strings.EqualFold(filepath.Ext(src.Name), ".xlsx") {
		return ReadXLSX(src.R)
	}
	return ReadCSV(src.R)
}
