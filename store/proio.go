package store

import (
	"context"

	"github.com/proio-org/go-proio"
	"github.com/proio-org/go-proio-pb/model/eic"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/decibelcooper/phiana/event"
)

// TruthTag selects the generator-level final-state particles.
const TruthTag = "GenStable"

// ProioSource streams generator-level particles from a proio file. Every
// particle passes, has status 0 and no daughter flag.
type ProioSource struct {
	path string
	tag  string
}

func OpenProio(path string) (*ProioSource, error) {
	reader, err := proio.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Path: path, Err: err}
	}
	reader.Close()
	return &ProioSource{path: path, tag: TruthTag}, nil
}

func (s *ProioSource) Scan(ctx context.Context, fn func(ev event.Event) error) (err error) {
	reader, err := proio.Open(s.path)
	if err != nil {
		return &ErrOpenFile{Path: s.path, Err: err}
	}

	events := reader.ScanEvents()
	defer func() {
		if err != nil {
			// unblock the scanning goroutine before closing
			go func() {
				for range events {
				}
				reader.Close()
			}()
			return
		}
		reader.Close()
	}()

	var entry int64
	for pev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := event.Event{Entry: entry}
		for _, id := range pev.TaggedEntries(s.tag) {
			part, ok := pev.GetEntry(id).(*eic.Particle)
			if !ok || part.Pdg == nil || part.P == nil {
				continue
			}
			ev.Append(event.Particle{
				PID:  event.PID(*part.Pdg),
				P:    r3.Vec{X: float64(*part.P.X), Y: float64(*part.P.Y), Z: float64(*part.P.Z)},
				Pass: true,
			})
		}
		entry++
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProioSource) Close() error {
	return nil
}
