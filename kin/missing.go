package kin

import (
	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Measured is a detected final-state particle with its assumed rest mass.
type Measured struct {
	P    r3.Vec
	Mass float64
}

// MissingFourVector returns beam + target - Σ measured, each measured
// particle taken on shell.
func MissingFourVector(beamEnergy float64, measured ...Measured) fmom.PxPyPzE {
	beam := Beam(beamEnergy)
	target := Target()

	var total fmom.PxPyPzE
	total.Set(fmom.Add(&beam, &target))
	for _, m := range measured {
		p := OnShell(m.P, m.Mass)
		total = fmom.NewPxPyPzE(
			total.Px()-p.Px(),
			total.Py()-p.Py(),
			total.Pz()-p.Pz(),
			total.E()-p.E(),
		)
	}
	return total
}

// ReconstructMissing returns the three-momentum of the unmeasured particle.
func ReconstructMissing(beamEnergy float64, measured ...Measured) r3.Vec {
	missing := MissingFourVector(beamEnergy, measured...)
	return Vec(&missing)
}
