// Package dismath computes the invariant observables of
// e p → e′ p′ K⁺ K⁻ from the reconstructed magnitudes and angles of the
// four final-state particles.
//
// Observables are exposed as a Table, an ordered list of named accessors
// evaluated against one Tuple per event.
package dismath

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/decibelcooper/phiana/kin"
)

// Polar is a momentum magnitude (GeV/c) with polar and azimuthal angles
// in radians.
type Polar struct {
	P, Theta, Phi float64
}

func (p Polar) Vec() r3.Vec {
	return kin.Direction(p.P, p.Theta, p.Phi)
}

// Tuple is the full argument list of every observable.
type Tuple struct {
	Beam     float64
	Electron Polar
	Proton   Polar
	KMinus   Polar
	KPlus    Polar
}

// Kinematics holds the four-vectors of one tuple.
type Kinematics struct {
	beam, target fmom.PxPyPzE
	electron     fmom.PxPyPzE
	proton       fmom.PxPyPzE
	kMinus       fmom.PxPyPzE
	kPlus        fmom.PxPyPzE

	q   fmom.PxPyPzE // virtual photon
	phi fmom.PxPyPzE // K⁺ + K⁻
}

func NewKinematics(t Tuple) *Kinematics {
	k := &Kinematics{
		beam:     kin.Beam(t.Beam),
		target:   kin.Target(),
		electron: kin.OnShell(t.Electron.Vec(), kin.ElectronMass),
		proton:   kin.OnShell(t.Proton.Vec(), kin.ProtonMass),
		kMinus:   kin.OnShell(t.KMinus.Vec(), kin.KaonMass),
		kPlus:    kin.OnShell(t.KPlus.Vec(), kin.KaonMass),
	}
	k.q = sub(&k.beam, &k.electron)
	k.phi.Set(fmom.Add(&k.kPlus, &k.kMinus))
	return k
}

func sub(a, b fmom.P4) fmom.PxPyPzE {
	return fmom.NewPxPyPzE(a.Px()-b.Px(), a.Py()-b.Py(), a.Pz()-b.Pz(), a.E()-b.E())
}

// missing returns beam + target minus the given final-state particles.
func (k *Kinematics) missing(parts ...*fmom.PxPyPzE) fmom.PxPyPzE {
	var m fmom.PxPyPzE
	m.Set(fmom.Add(&k.beam, &k.target))
	for _, p := range parts {
		m = sub(&m, p)
	}
	return m
}

func (k *Kinematics) Q2() float64 {
	return -k.q.M2()
}

func (k *Kinematics) Nu() float64 {
	return k.beam.E() - k.electron.E()
}

func (k *Kinematics) XB() float64 {
	return k.Q2() / (2 * kin.ProtonMass * k.Nu())
}

func (k *Kinematics) Y() float64 {
	return k.Nu() / k.beam.E()
}

func (k *Kinematics) W() float64 {
	var w fmom.PxPyPzE
	w.Set(fmom.Add(&k.q, &k.target))
	return w.M()
}

// T is the squared four-momentum transfer to the proton; negative for
// physical events.
func (k *Kinematics) T() float64 {
	d := sub(&k.target, &k.proton)
	return d.M2()
}

// Phi is the Trento angle between the lepton plane and the φ-meson
// production plane, in degrees.
func (k *Kinematics) Phi() float64 {
	return trento(kin.Vec(&k.q), kin.Vec(&k.beam), kin.Vec(&k.phi))
}

func (k *Kinematics) Mx2EP() float64 {
	m := k.missing(&k.electron, &k.proton)
	return m.M2()
}

func (k *Kinematics) EMiss() float64 {
	m := k.missing(&k.electron, &k.proton, &k.kPlus, &k.kMinus)
	return m.E()
}

func (k *Kinematics) PTMiss() float64 {
	m := k.missing(&k.electron, &k.proton, &k.kPlus, &k.kMinus)
	return math.Hypot(m.Px(), m.Py())
}

func (k *Kinematics) Mx2EPKpKm() float64 {
	m := k.missing(&k.electron, &k.proton, &k.kPlus, &k.kMinus)
	return m.M2()
}

func (k *Kinematics) Mx2EKpKm() float64 {
	m := k.missing(&k.electron, &k.kPlus, &k.kMinus)
	return m.M2()
}

// Mx2EPKp is the squared missing mass of e p K⁺, the K⁻ peak.
func (k *Kinematics) Mx2EPKp() float64 {
	m := k.missing(&k.electron, &k.proton, &k.kPlus)
	return m.M2()
}

// Mx2EPKm is the squared missing mass of e p K⁻, the K⁺ peak.
func (k *Kinematics) Mx2EPKm() float64 {
	m := k.missing(&k.electron, &k.proton, &k.kMinus)
	return m.M2()
}

// DeltaPhi compares the Trento angle of the measured K⁺K⁻ pair with the
// one of the e p missing momentum, in degrees.
func (k *Kinematics) DeltaPhi() float64 {
	x := k.missing(&k.electron, &k.proton)
	q, l := kin.Vec(&k.q), kin.Vec(&k.beam)
	return math.Abs(trento(q, l, kin.Vec(&k.phi)) - trento(q, l, kin.Vec(&x)))
}

// ThetaGPhiMeson is the opening angle between the measured K⁺K⁻ pair and
// the e p missing momentum, in degrees.
func (k *Kinematics) ThetaGPhiMeson() float64 {
	x := k.missing(&k.electron, &k.proton)
	return angle(kin.Vec(&k.phi), kin.Vec(&x))
}

// ThetaEPhiMeson is the angle between the scattered electron and the
// K⁺K⁻ pair, in degrees.
func (k *Kinematics) ThetaEPhiMeson() float64 {
	return angle(kin.Vec(&k.electron), kin.Vec(&k.phi))
}

// DeltaE is the initial minus the final state energy.
func (k *Kinematics) DeltaE() float64 {
	initial := k.beam.E() + k.target.E()
	final := k.electron.E() + k.proton.E() + k.kPlus.E() + k.kMinus.E()
	return initial - final
}

func angle(a, b r3.Vec) float64 {
	c := r3.Dot(a, b) / (r3.Norm(a) * r3.Norm(b))
	return degrees(math.Acos(clamp(c)))
}

// trento returns the angle in [0, 360) between the plane spanned by the
// virtual photon q and the beam l, and the plane spanned by q and h.
func trento(q, l, h r3.Vec) float64 {
	nl := r3.Cross(q, l)
	nh := r3.Cross(q, h)
	c := r3.Dot(nl, nh) / (r3.Norm(nl) * r3.Norm(nh))
	phi := math.Acos(clamp(c))
	if r3.Dot(r3.Cross(nl, nh), q) < 0 {
		phi = 2*math.Pi - phi
	}
	if phi >= 2*math.Pi {
		phi = 0
	}
	return degrees(phi)
}

func clamp(c float64) float64 {
	return math.Max(-1, math.Min(1, c))
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
