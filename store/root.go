package store

import (
	"context"
	"fmt"
	"slices"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/decibelcooper/phiana/event"
	"github.com/decibelcooper/phiana/frame"
)

// DefaultTree is the tree holding the reconstructed particles.
const DefaultTree = "clas12"

// ROOTSource streams events from a tree of index-aligned particle
// branches. Status and daughter flags are optional; when the tree lacks
// them every particle gets status 0 and no daughter flag.
type ROOTSource struct {
	path string
	f    *riofs.File
	tree rtree.Tree
}

func OpenROOT(path, tree string) (*ROOTSource, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Path: path, Err: err}
	}
	obj, err := f.Get(tree)
	if err != nil {
		f.Close()
		return nil, &ErrTreeNotFound{Path: path, Tree: tree}
	}
	t, ok := obj.(rtree.Tree)
	if !ok {
		f.Close()
		return nil, &ErrTreeNotFound{Path: path, Tree: tree}
	}
	return &ROOTSource{path: path, f: f, tree: t}, nil
}

// Entries returns the number of events in the tree.
func (s *ROOTSource) Entries() int64 {
	return s.tree.Entries()
}

func (s *ROOTSource) has(branch string) bool {
	return s.tree.Branch(branch) != nil
}

func (s *ROOTSource) Scan(ctx context.Context, fn func(ev event.Event) error) error {
	var (
		pid        []int32
		px, py, pz []float32
		status     []int16
		pass       []bool
		daughter   []bool
	)
	rvars := []rtree.ReadVar{
		{Name: event.ColPID, Value: &pid},
		{Name: event.ColPx, Value: &px},
		{Name: event.ColPy, Value: &py},
		{Name: event.ColPz, Value: &pz},
		{Name: event.ColPass, Value: &pass},
	}
	hasStatus := s.has(event.ColStatus)
	if hasStatus {
		rvars = append(rvars, rtree.ReadVar{Name: event.ColStatus, Value: &status})
	}
	hasDaughter := s.has(event.ColDaughterPass)
	if hasDaughter {
		rvars = append(rvars, rtree.ReadVar{Name: event.ColDaughterPass, Value: &daughter})
	}
	for _, rv := range rvars {
		if !s.has(rv.Name) {
			return fmt.Errorf("store: %s: missing branch %q", s.path, rv.Name)
		}
	}

	r, err := rtree.NewReader(s.tree, rvars)
	if err != nil {
		return fmt.Errorf("store: %s: could not create reader: %w", s.path, err)
	}
	defer r.Close()

	return r.Read(func(rctx rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := len(pid)
		ev := event.Event{
			Entry:        rctx.Entry,
			PID:          slices.Clone(pid),
			Px:           slices.Clone(px),
			Py:           slices.Clone(py),
			Pz:           slices.Clone(pz),
			Pass:         slices.Clone(pass),
			Status:       make([]int16, n),
			DaughterPass: make([]bool, n),
		}
		if hasStatus {
			ev.Status = slices.Clone(status)
		}
		if hasDaughter {
			ev.DaughterPass = slices.Clone(daughter)
		}
		if err := ev.Validate(); err != nil {
			return err
		}
		return fn(ev)
	})
}

func (s *ROOTSource) Close() error {
	return s.f.Close()
}

// ROOTWriter writes one float64 branch per column. Missing values are
// written as frame.Sentinel.
type ROOTWriter struct {
	f     *riofs.File
	w     rtree.Writer
	entry int64
	vals  []float64
}

func CreateROOT(path, tree string, columns []string) (*ROOTWriter, error) {
	f, err := groot.Create(path)
	if err != nil {
		return nil, &ErrOpenFile{Path: path, Err: err}
	}
	rw := &ROOTWriter{f: f, vals: make([]float64, len(columns))}
	wvars := make([]rtree.WriteVar, 0, len(columns)+1)
	wvars = append(wvars, rtree.WriteVar{Name: EntryColumn, Value: &rw.entry})
	for i, c := range columns {
		wvars = append(wvars, rtree.WriteVar{Name: c, Value: &rw.vals[i]})
	}
	rw.w, err = rtree.NewWriter(f, tree, wvars)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: could not create tree %q in %s: %w", tree, path, err)
	}
	return rw, nil
}

func (rw *ROOTWriter) Write(rec frame.Record) error {
	rw.entry = rec.Event().Entry
	for i, v := range rec.Values() {
		rw.vals[i] = v.Float64()
	}
	_, err := rw.w.Write()
	return err
}

func (rw *ROOTWriter) Close() error {
	if err := rw.w.Close(); err != nil {
		rw.f.Close()
		return err
	}
	return rw.f.Close()
}
