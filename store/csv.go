package store

import (
	"strings"

	"go-hep.org/x/hep/csvutil"

	"github.com/decibelcooper/phiana/frame"
)

// CSVWriter writes a comma-separated table with a header line. Missing
// values are written as frame.Sentinel.
type CSVWriter struct {
	tbl *csvutil.Table
	row []interface{}
}

func CreateCSV(path string, columns []string) (*CSVWriter, error) {
	tbl, err := csvutil.Create(path)
	if err != nil {
		return nil, &ErrOpenFile{Path: path, Err: err}
	}
	tbl.Writer.Comma = ','

	hdr := append([]string{EntryColumn}, columns...)
	if err := tbl.WriteHeader(strings.Join(hdr, ",") + "\n"); err != nil {
		tbl.Close()
		return nil, err
	}
	return &CSVWriter{tbl: tbl, row: make([]interface{}, len(hdr))}, nil
}

func (w *CSVWriter) Write(rec frame.Record) error {
	w.row[0] = rec.Event().Entry
	for i, v := range rec.Values() {
		w.row[i+1] = v.Float64()
	}
	return w.tbl.WriteRow(w.row...)
}

func (w *CSVWriter) Close() error {
	return w.tbl.Close()
}
