// Package event models one reconstructed event as index-aligned particle
// arrays, and implements candidate selection and the event-level
// topology predicates used to isolate exclusive φ → K⁺K⁻ events.
package event

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// PID is a particle-type code.
type PID int32

const (
	Electron PID = 11
	Photon   PID = 22
	KPlus    PID = 321
	KMinus   PID = -321
	Proton   PID = 2212
)

func (p PID) String() string {
	switch p {
	case Electron:
		return "e-"
	case Photon:
		return "gamma"
	case KPlus:
		return "K+"
	case KMinus:
		return "K-"
	case Proton:
		return "p"
	}
	return fmt.Sprintf("pid(%d)", int32(p))
}

// Raw column names, as found in the reconstructed-particle trees.
const (
	ColPID          = "REC_Particle_pid"
	ColPx           = "REC_Particle_px"
	ColPy           = "REC_Particle_py"
	ColPz           = "REC_Particle_pz"
	ColStatus       = "REC_Particle_status"
	ColPass         = "REC_Particle_pass"
	ColDaughterPass = "REC_DaughterParticle_pass"
)

var Columns = []string{ColPID, ColPx, ColPy, ColPz, ColStatus, ColPass, ColDaughterPass}

// Event holds the particles of one event. Index i refers to the same
// particle in every slice.
type Event struct {
	Entry int64

	PID          []int32
	Px, Py, Pz   []float32
	Status       []int16
	Pass         []bool
	DaughterPass []bool
}

// ErrMisaligned is returned when the per-particle arrays of an event
// do not all have the same length.
type ErrMisaligned struct {
	Entry  int64
	Column string
	Len    int
	Want   int
}

func (e *ErrMisaligned) Error() string {
	return fmt.Sprintf("event %d: column %s has %d entries, want %d", e.Entry, e.Column, e.Len, e.Want)
}

func (ev *Event) Len() int {
	return len(ev.PID)
}

func (ev *Event) Validate() error {
	n := len(ev.PID)
	lens := []struct {
		col string
		n   int
	}{
		{ColPx, len(ev.Px)},
		{ColPy, len(ev.Py)},
		{ColPz, len(ev.Pz)},
		{ColStatus, len(ev.Status)},
		{ColPass, len(ev.Pass)},
		{ColDaughterPass, len(ev.DaughterPass)},
	}
	for _, l := range lens {
		if l.n != n {
			return &ErrMisaligned{Entry: ev.Entry, Column: l.col, Len: l.n, Want: n}
		}
	}
	return nil
}

// Momentum returns the three-momentum of particle i.
func (ev *Event) Momentum(i int) r3.Vec {
	return r3.Vec{X: float64(ev.Px[i]), Y: float64(ev.Py[i]), Z: float64(ev.Pz[i])}
}

// first returns the index of the first passing particle of the given type.
func (ev *Event) first(pid PID) int {
	for i := range ev.PID {
		if PID(ev.PID[i]) == pid && ev.Pass[i] {
			return i
		}
	}
	return -1
}

// Select returns the momentum of the first passing particle of the given
// type in array order. Later candidates of the same type are ignored.
func (ev *Event) Select(pid PID) (r3.Vec, bool) {
	i := ev.first(pid)
	if i < 0 {
		return r3.Vec{}, false
	}
	return ev.Momentum(i), true
}

// Region returns the detector region of the particle Select would pick.
func (ev *Event) Region(pid PID) Region {
	i := ev.first(pid)
	if i < 0 || i >= len(ev.Status) {
		return RegionUnknown
	}
	return RegionOf(ev.Status[i])
}

// Particle is a single row of an event.
type Particle struct {
	PID      PID
	P        r3.Vec
	Status   int16
	Pass     bool
	Daughter bool
}

// New lays particles out as index-aligned columns.
func New(entry int64, parts ...Particle) Event {
	ev := Event{
		Entry:        entry,
		PID:          make([]int32, len(parts)),
		Px:           make([]float32, len(parts)),
		Py:           make([]float32, len(parts)),
		Pz:           make([]float32, len(parts)),
		Status:       make([]int16, len(parts)),
		Pass:         make([]bool, len(parts)),
		DaughterPass: make([]bool, len(parts)),
	}
	for i, p := range parts {
		ev.PID[i] = int32(p.PID)
		ev.Px[i] = float32(p.P.X)
		ev.Py[i] = float32(p.P.Y)
		ev.Pz[i] = float32(p.P.Z)
		ev.Status[i] = p.Status
		ev.Pass[i] = p.Pass
		ev.DaughterPass[i] = p.Daughter
	}
	return ev
}

// Append adds a particle row to the event.
func (ev *Event) Append(p Particle) {
	ev.PID = append(ev.PID, int32(p.PID))
	ev.Px = append(ev.Px, float32(p.P.X))
	ev.Py = append(ev.Py, float32(p.P.Y))
	ev.Pz = append(ev.Pz, float32(p.P.Z))
	ev.Status = append(ev.Status, p.Status)
	ev.Pass = append(ev.Pass, p.Pass)
	ev.DaughterPass = append(ev.DaughterPass, p.Daughter)
}
