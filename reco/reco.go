// Package reco builds the per-event observable graph of the
// e p → e′ p′ φ(→ K⁺K⁻) analysis for each reconstruction channel.
//
// The graph is appended to a frame.Plan in strict dependency order:
//
//	raw particle arrays
//	→ selected candidates (ele_*, pro_*, kPlus_*, kMinus_*)
//	→ missing candidate (kMinus_miss_* or kPlus_miss_*), if any
//	→ p, theta, phi per candidate (recel_*, recpro_*, reckMinus_*, reckPlus_*)
//	→ observable table (Q2, xB, t, ...)
//	→ cut aliases
//
// A candidate that is absent from the event propagates as missing values
// through every column built from it.
package reco

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/decibelcooper/phiana/dismath"
	"github.com/decibelcooper/phiana/event"
	"github.com/decibelcooper/phiana/frame"
	"github.com/decibelcooper/phiana/kin"
)

const InvMassKpKm = "invMass_KpKm"

type options struct {
	table dismath.Table
}

type Option func(*options)

// WithTable replaces the default observable table.
func WithTable(t dismath.Table) Option {
	return func(o *options) { o.table = t }
}

// Build appends the observable graph of a channel to p.
func Build(p *frame.Plan, ch Channel, beamEnergy float64, opts ...Option) *frame.Plan {
	o := options{table: dismath.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	missing, inferred := ch.missing()
	var measured []role
	for _, r := range roles {
		if inferred && r == missing {
			continue
		}
		p = selectCandidate(p, r)
		measured = append(measured, r)
	}

	if ch == Full {
		p = requireCandidates(p, measured)
	}
	if inferred {
		p = reconstructMissing(p, beamEnergy, missing, measured)
	}

	for _, r := range roles {
		src := r.measured()
		if inferred && r == missing {
			src = r.missing()
		}
		p = derivePolar(p, r, src)
	}

	if ch == Full {
		p = regions(p)
		p = invMass(p)
	}

	p = observables(p, beamEnergy, o.table)

	if inferred {
		p = cutAlias(p, "Mx2_epKm")
		p = cutAlias(p, "Mx2_epKp")
	}
	return p
}

func ReconstructFull(p *frame.Plan, beamEnergy float64, opts ...Option) *frame.Plan {
	return Build(p, Full, beamEnergy, opts...)
}

func ReconstructMissingKMinus(p *frame.Plan, beamEnergy float64, opts ...Option) *frame.Plan {
	return Build(p, MissingKMinus, beamEnergy, opts...)
}

func ReconstructMissingKPlus(p *frame.Plan, beamEnergy float64, opts ...Option) *frame.Plan {
	return Build(p, MissingKPlus, beamEnergy, opts...)
}

// ReconstructExclusiveKPlus reconstructs events where the K⁺ is observed
// and the K⁻ is inferred.
func ReconstructExclusiveKPlus(p *frame.Plan, beamEnergy float64, opts ...Option) *frame.Plan {
	return ReconstructMissingKMinus(p, beamEnergy, opts...)
}

// ReconstructExclusiveKMinus reconstructs events where the K⁻ is observed
// and the K⁺ is inferred.
func ReconstructExclusiveKMinus(p *frame.Plan, beamEnergy float64, opts ...Option) *frame.Plan {
	return ReconstructMissingKPlus(p, beamEnergy, opts...)
}

func vec(in []frame.Value) r3.Vec {
	return r3.Vec{X: in[0].F, Y: in[1].F, Z: in[2].F}
}

func missingN(n int) []frame.Value {
	return make([]frame.Value, n)
}

func selectCandidate(p *frame.Plan, r role) *frame.Plan {
	raw := []string{event.ColPID, event.ColPx, event.ColPy, event.ColPz, event.ColPass}
	return p.DefineFromEvent("select "+r.pid.String(), r.measured(), raw, func(ev *event.Event) []frame.Value {
		v, ok := ev.Select(r.pid)
		if !ok {
			return missingN(3)
		}
		return []frame.Value{frame.Some(v.X), frame.Some(v.Y), frame.Some(v.Z)}
	})
}

func requireCandidates(p *frame.Plan, rs []role) *frame.Plan {
	var inputs []string
	for _, r := range rs {
		inputs = append(inputs, r.measured()...)
	}
	return p.Filter("require e-, p, K-, K+", inputs, func(in []frame.Value) bool {
		return frame.All(in...)
	})
}

func reconstructMissing(p *frame.Plan, beamEnergy float64, missing role, measured []role) *frame.Plan {
	var inputs []string
	for _, r := range measured {
		inputs = append(inputs, r.measured()...)
	}
	return p.DefineN("missing "+missing.pid.String(), missing.missing(), inputs, func(in []frame.Value) []frame.Value {
		if !frame.All(in...) {
			return missingN(3)
		}
		parts := make([]kin.Measured, len(measured))
		for i, r := range measured {
			parts[i] = kin.Measured{P: vec(in[3*i : 3*i+3]), Mass: r.mass}
		}
		v := kin.ReconstructMissing(beamEnergy, parts...)
		return []frame.Value{frame.Some(v.X), frame.Some(v.Y), frame.Some(v.Z)}
	})
}

func derivePolar(p *frame.Plan, r role, src []string) *frame.Plan {
	return p.DefineN("polar "+r.pid.String(), r.polar(), src, func(in []frame.Value) []frame.Value {
		if !frame.All(in...) {
			return missingN(3)
		}
		v := vec(in)
		return []frame.Value{frame.Some(kin.Momentum(v)), frame.Some(kin.Theta(v)), frame.Some(kin.Phi(v))}
	})
}

func regions(p *frame.Plan) *frame.Plan {
	rs := []role{kMinus, kPlus, proton, electron}
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.region()
	}
	raw := []string{event.ColPID, event.ColStatus, event.ColPass}
	return p.DefineFromEvent("detector regions", names, raw, func(ev *event.Event) []frame.Value {
		out := make([]frame.Value, len(rs))
		for i, r := range rs {
			out[i] = frame.Some(float64(ev.Region(r.pid)))
		}
		return out
	})
}

func invMass(p *frame.Plan) *frame.Plan {
	inputs := append(kPlus.measured(), kMinus.measured()...)
	return p.Define(InvMassKpKm, inputs, func(in []frame.Value) frame.Value {
		if !frame.All(in...) {
			return frame.Missing
		}
		return frame.Some(kin.InvMass(vec(in[:3]), vec(in[3:]), kin.KaonMass, kin.KaonMass))
	})
}

func observables(p *frame.Plan, beamEnergy float64, table dismath.Table) *frame.Plan {
	var inputs []string
	for _, r := range roles {
		inputs = append(inputs, r.polar()...)
	}
	return p.DefineN("observables", table.Names(), inputs, func(in []frame.Value) []frame.Value {
		if !frame.All(in...) {
			return missingN(len(table))
		}
		polar := func(i int) dismath.Polar {
			return dismath.Polar{P: in[3*i].F, Theta: in[3*i+1].F, Phi: in[3*i+2].F}
		}
		tuple := dismath.Tuple{
			Beam:     beamEnergy,
			Electron: polar(0),
			Proton:   polar(1),
			KMinus:   polar(2),
			KPlus:    polar(3),
		}
		vals := table.Eval(tuple)
		out := make([]frame.Value, len(vals))
		for i, v := range vals {
			out[i] = frame.Some(v)
		}
		return out
	})
}

// cutAlias exposes a squared missing mass and its square root for cut
// studies. The root is missing when the squared value is not positive.
func cutAlias(p *frame.Plan, mx2 string) *frame.Plan {
	if !p.Has(mx2) {
		return p
	}
	alias := mx2 + "_forCut"
	root := strings.Replace(mx2, "Mx2_", "Mx_", 1) + "_forCut"
	return p.
		Define(alias, []string{mx2}, func(in []frame.Value) frame.Value {
			return in[0]
		}).
		Define(root, []string{alias}, func(in []frame.Value) frame.Value {
			if !in[0].OK || in[0].F <= 0 {
				return frame.Missing
			}
			return frame.Some(math.Sqrt(in[0].F))
		})
}
