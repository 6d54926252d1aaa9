// Package store reads events from ROOT and proio files and writes the
// per-event observables of a reconstruction to ROOT, CSV or SQLite.
package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/decibelcooper/phiana/frame"
)

// EntryColumn is written ahead of the observables in every output.
const EntryColumn = "entry"

type ErrOpenFile struct {
	Path string
	Err  error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("store: could not open %s: %v", e.Path, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

type ErrTreeNotFound struct {
	Path string
	Tree string
}

func (e *ErrTreeNotFound) Error() string {
	return fmt.Sprintf("store: no tree %q in %s", e.Tree, e.Path)
}

type ErrUnknownFormat struct {
	Name string
}

func (e *ErrUnknownFormat) Error() string {
	return fmt.Sprintf("store: unknown output format %q", e.Name)
}

// Writer is a frame.Sink backed by a file. Close must be called to flush
// the output.
type Writer interface {
	frame.Sink
	Close() error
}

type Format int

const (
	FormatAuto Format = iota
	FormatROOT
	FormatCSV
	FormatSQLite
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatROOT:
		return "root"
	case FormatCSV:
		return "csv"
	case FormatSQLite:
		return "sqlite"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "root":
		return FormatROOT, nil
	case "csv":
		return FormatCSV, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	}
	return FormatAuto, &ErrUnknownFormat{Name: s}
}

// FormatOf guesses the output format from a file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".root":
		return FormatROOT, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return FormatAuto, &ErrUnknownFormat{Name: ext}
	}
}

// Create opens an output of the given format holding the entry number
// followed by columns. name is the tree or table name; it is ignored by
// CSV.
func Create(path string, format Format, name string, columns []string) (Writer, error) {
	if format == FormatAuto {
		var err error
		if format, err = FormatOf(path); err != nil {
			return nil, err
		}
	}
	switch format {
	case FormatROOT:
		return CreateROOT(path, name, columns)
	case FormatCSV:
		return CreateCSV(path, columns)
	case FormatSQLite:
		return CreateSQLite(path, name, columns)
	}
	return nil, &ErrUnknownFormat{Name: format.String()}
}
