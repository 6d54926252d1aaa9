package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/proio-org/go-proio"
	"github.com/proio-org/go-proio-pb/model/eic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/decibelcooper/phiana/event"
	"github.com/decibelcooper/phiana/frame"
)

var columns = []string{"pz", "half"}

// records yields three events: the second has no electron.
func records(t *testing.T) []frame.Record {
	t.Helper()
	p := frame.NewPlan().
		DefineFromEvent("electron", []string{"pz"}, []string{event.ColPID, event.ColPz, event.ColPass}, func(ev *event.Event) []frame.Value {
			v, ok := ev.Select(event.Electron)
			if !ok {
				return []frame.Value{frame.Missing}
			}
			return []frame.Value{frame.Some(v.Z)}
		}).
		Define("half", []string{"pz"}, func(in []frame.Value) frame.Value {
			if !in[0].OK {
				return frame.Missing
			}
			return frame.Some(in[0].F / 2)
		})
	require.NoError(t, p.Err())
	require.Equal(t, columns, p.Columns())

	src := frame.SliceSource{
		event.New(7, event.Particle{PID: event.Electron, P: r3.Vec{Z: 3}, Pass: true}),
		event.New(8, event.Particle{PID: event.Proton, P: r3.Vec{Z: 1}, Pass: true}),
		event.New(9, event.Particle{PID: event.Electron, P: r3.Vec{Z: 5}, Pass: true}),
	}
	recs, _, err := p.Collect(context.Background(), src, frame.WithWorkers(1))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	return recs
}

func fill(t *testing.T, w Writer) {
	t.Helper()
	for _, rec := range records(t) {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
}

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := Create(path, FormatAuto, "", columns)
	require.NoError(t, err)
	require.IsType(t, &CSVWriter{}, w)
	fill(t, w)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"entry", "pz", "half"},
		{"7", "3", "1.5"},
		{"8", "-999", "-999"},
		{"9", "5", "2.5"},
	}, rows)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	w, err := Create(path, FormatSQLite, "phi", columns)
	require.NoError(t, err)
	fill(t, w)

	db, err := sqlx.Connect("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	type row struct {
		Entry int64           `db:"entry"`
		Pz    sql.NullFloat64 `db:"pz"`
		Half  sql.NullFloat64 `db:"half"`
	}
	var rows []row
	require.NoError(t, db.Select(&rows, `SELECT * FROM "phi" ORDER BY "entry"`))
	require.Len(t, rows, 3)
	assert.Equal(t, row{Entry: 7, Pz: sql.NullFloat64{Float64: 3, Valid: true}, Half: sql.NullFloat64{Float64: 1.5, Valid: true}}, rows[0])
	assert.Equal(t, int64(8), rows[1].Entry)
	assert.False(t, rows[1].Pz.Valid)
	assert.False(t, rows[1].Half.Valid)
}

func TestROOTWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.root")
	w, err := Create(path, FormatAuto, "phi", columns)
	require.NoError(t, err)
	fill(t, w)

	f, err := groot.Open(path)
	require.NoError(t, err)
	defer f.Close()
	obj, err := f.Get("phi")
	require.NoError(t, err)
	tree := obj.(rtree.Tree)
	assert.Equal(t, int64(3), tree.Entries())

	var (
		entry    int64
		pz, half float64
	)
	r, err := rtree.NewReader(tree, []rtree.ReadVar{
		{Name: EntryColumn, Value: &entry},
		{Name: "pz", Value: &pz},
		{Name: "half", Value: &half},
	})
	require.NoError(t, err)
	defer r.Close()

	var got [][3]float64
	err = r.Read(func(rtree.RCtx) error {
		got = append(got, [3]float64{float64(entry), pz, half})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][3]float64{{7, 3, 1.5}, {8, -999, -999}, {9, 5, 2.5}}, got)
}

func writeParticles(t *testing.T, path string, events []event.Event) {
	t.Helper()
	f, err := groot.Create(path)
	require.NoError(t, err)

	var (
		n          int32
		pid        []int32
		px, py, pz []float32
		status     []int16
		pass       []bool
	)
	w, err := rtree.NewWriter(f, DefaultTree, []rtree.WriteVar{
		{Name: "n", Value: &n},
		{Name: event.ColPID, Value: &pid, Count: "n"},
		{Name: event.ColPx, Value: &px, Count: "n"},
		{Name: event.ColPy, Value: &py, Count: "n"},
		{Name: event.ColPz, Value: &pz, Count: "n"},
		{Name: event.ColStatus, Value: &status, Count: "n"},
		{Name: event.ColPass, Value: &pass, Count: "n"},
	})
	require.NoError(t, err)
	for _, ev := range events {
		n = int32(ev.Len())
		pid, px, py, pz, status, pass = ev.PID, ev.Px, ev.Py, ev.Pz, ev.Status, ev.Pass
		_, err := w.Write()
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestROOTSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.root")
	in := []event.Event{
		event.New(0,
			event.Particle{PID: event.Electron, P: r3.Vec{X: 0.5, Z: 4}, Status: 1100, Pass: true},
			event.Particle{PID: event.Proton, P: r3.Vec{Y: -0.25, Z: 1}, Status: 4100, Pass: true},
		),
		event.New(1),
		event.New(2, event.Particle{PID: event.KPlus, P: r3.Vec{Z: 2}, Status: 2100}),
	}
	writeParticles(t, path, in)

	src, err := OpenROOT(path, DefaultTree)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, int64(3), src.Entries())

	recs, stats, err := frame.NewPlan().Collect(context.Background(), src, frame.WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, frame.Stats{Read: 3, Kept: 3}, stats)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		got := rec.Event()
		assert.Equal(t, int64(i), got.Entry)
		assert.Equal(t, in[i].Len(), got.Len())
		for j := 0; j < got.Len(); j++ {
			assert.Equal(t, in[i].PID[j], got.PID[j])
			assert.Equal(t, in[i].Momentum(j), got.Momentum(j))
			assert.Equal(t, in[i].Status[j], got.Status[j])
			assert.Equal(t, in[i].Pass[j], got.Pass[j])
			assert.False(t, got.DaughterPass[j])
		}
	}
	assert.Equal(t, event.RegionFT, recs[0].Event().Region(event.Electron))
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenROOT(filepath.Join(dir, "nope.root"), DefaultTree)
	var open *ErrOpenFile
	assert.True(t, errors.As(err, &open))

	path := filepath.Join(dir, "in.root")
	writeParticles(t, path, nil)
	_, err = OpenROOT(path, "hipo")
	var notFound *ErrTreeNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "hipo", notFound.Tree)

	_, err = Create(filepath.Join(dir, "out.parquet"), FormatAuto, "phi", columns)
	var unknown *ErrUnknownFormat
	assert.True(t, errors.As(err, &unknown))

	_, err = ParseFormat("hdf5")
	assert.True(t, errors.As(err, &unknown))

	_, err = OpenProio(filepath.Join(dir, "nope.proio"))
	assert.True(t, errors.As(err, &open))
}

func TestParseFormat(t *testing.T) {
	for s, want := range map[string]Format{"": FormatAuto, "ROOT": FormatROOT, "csv": FormatCSV, "db": FormatSQLite} {
		got, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func writeTruth(t *testing.T, path string, nEvents int) {
	t.Helper()
	w, err := proio.Create(path)
	require.NoError(t, err)

	particle := func(pdg int32, x, y, z float32) *eic.Particle {
		return &eic.Particle{Pdg: &pdg, P: &eic.XYZF{X: &x, Y: &y, Z: &z}}
	}
	for i := 0; i < nEvents; i++ {
		ev := proio.NewEvent()
		for _, part := range []*eic.Particle{
			particle(11, 0.5, 0, 4),
			particle(2212, 0, -0.25, 1),
			particle(321, 0.125, 0, 2),
			particle(-321, 0, 0.375, 2.5),
		} {
			ev.AddEntry(TruthTag, part)
		}
		ev.AddEntry("Other", particle(22, 0, 0, float32(i+1)))
		require.NoError(t, w.Push(ev))
	}
	w.Close()
}

func TestProioSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truth.proio")
	writeTruth(t, path, 5)

	src, err := OpenProio(path)
	require.NoError(t, err)
	defer src.Close()

	recs, stats, err := frame.NewPlan().Collect(context.Background(), src, frame.WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, frame.Stats{Read: 5, Kept: 5}, stats)
	require.Len(t, recs, 5)
	for i, rec := range recs {
		ev := rec.Event()
		assert.Equal(t, int64(i), ev.Entry)
		assert.Equal(t, []int32{11, 2212, 321, -321}, ev.PID)
		assert.Equal(t, []bool{true, true, true, true}, ev.Pass)
		assert.Equal(t, []bool{false, false, false, false}, ev.DaughterPass)
		assert.Equal(t, []int16{0, 0, 0, 0}, ev.Status)
		assert.Equal(t, r3.Vec{X: 0.5, Z: 4}, ev.Momentum(0))
		assert.Equal(t, r3.Vec{Y: 0.375, Z: 2.5}, ev.Momentum(3))
	}

	// a limited scan stops early and leaves the source reusable
	recs, stats, err = frame.NewPlan().Collect(context.Background(), src, frame.WithWorkers(1), frame.WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, frame.Stats{Read: 2, Kept: 2}, stats)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[1].Event().Entry)

	recs, _, err = frame.NewPlan().Collect(context.Background(), src, frame.WithWorkers(1), frame.WithSkip(3))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(3), recs[0].Event().Entry)
}

func TestSQLiteReplacesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	w, err := CreateSQLite(path, "phi", []string{"Q2"})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = CreateSQLite(path, "phi", columns)
	require.NoError(t, err)
	fill(t, w)
	w, err = CreateSQLite(path, "phi", columns)
	require.NoError(t, err)
	fill(t, w)

	db, err := sqlx.Connect("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM "phi"`))
	assert.Equal(t, 3, n)

	var cols []string
	require.NoError(t, db.Select(&cols, `SELECT name FROM pragma_table_info('phi')`))
	assert.Equal(t, []string{"entry", "pz", "half"}, cols)
}
