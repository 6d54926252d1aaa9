// Package kin holds the single-particle kinematics shared by every
// reconstruction channel: momentum magnitude and angles, on-shell
// four-vectors, and missing four-vectors from energy-momentum conservation.
package kin

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rest masses in GeV.
const (
	ElectronMass = 0.000511
	ProtonMass   = 0.938272
	KaonMass     = 0.493677
)

func Momentum(v r3.Vec) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Theta is NaN for a zero vector.
func Theta(v r3.Vec) float64 {
	return math.Acos(v.Z / Momentum(v))
}

// Phi is the azimuth in [0, 2π).
func Phi(v r3.Vec) float64 {
	phi := math.Atan2(v.Y, v.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}

// Direction rebuilds a three-momentum from its magnitude and angles.
func Direction(p, theta, phi float64) r3.Vec {
	sinTh := math.Sin(theta)
	return r3.Vec{
		X: p * sinTh * math.Cos(phi),
		Y: p * sinTh * math.Sin(phi),
		Z: p * math.Cos(theta),
	}
}

func OnShell(p r3.Vec, mass float64) fmom.PxPyPzE {
	e := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z + mass*mass)
	return fmom.NewPxPyPzE(p.X, p.Y, p.Z, e)
}

// Beam is an electron beam along +z; the electron mass is neglected.
func Beam(energy float64) fmom.PxPyPzE {
	return fmom.NewPxPyPzE(0, 0, energy, energy)
}

// Target is a proton at rest.
func Target() fmom.PxPyPzE {
	return fmom.NewPxPyPzE(0, 0, 0, ProtonMass)
}

// InvMass is the invariant mass of two on-shell particles.
func InvMass(a, b r3.Vec, massA, massB float64) float64 {
	pa := OnShell(a, massA)
	pb := OnShell(b, massB)
	return fmom.InvMass(&pa, &pb)
}

func Vec(p fmom.P4) r3.Vec {
	return r3.Vec{X: p.Px(), Y: p.Py(), Z: p.Pz()}
}
