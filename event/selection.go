package event

import (
	"fmt"
	"strings"
)

// DaughterPolicy decides how the φ-event predicate treats the
// daughter-of-resonance flag of kaons.
type DaughterPolicy int

const (
	// IgnoreDaughter accepts events regardless of kaon provenance.
	IgnoreDaughter DaughterPolicy = iota
	// RequireKaonDaughter needs at least one passing kaon flagged as a
	// resonance daughter.
	RequireKaonDaughter
)

func (p DaughterPolicy) String() string {
	switch p {
	case IgnoreDaughter:
		return "ignore"
	case RequireKaonDaughter:
		return "require"
	}
	return fmt.Sprintf("DaughterPolicy(%d)", int(p))
}

func ParseDaughterPolicy(s string) (DaughterPolicy, error) {
	switch strings.ToLower(s) {
	case "", "ignore":
		return IgnoreDaughter, nil
	case "require":
		return RequireKaonDaughter, nil
	}
	return IgnoreDaughter, fmt.Errorf("unknown daughter policy %q", s)
}

// IsExclusivePhi keeps events with exactly one electron and at least one
// K⁺, K⁻ and proton among the passing particles.
func IsExclusivePhi(ev *Event, policy DaughterPolicy) bool {
	e, kp, km, p := 0, 0, 0, 0
	fromPhi := policy == IgnoreDaughter

	for i := range ev.PID {
		if !ev.Pass[i] {
			continue
		}
		switch PID(ev.PID[i]) {
		case Electron:
			e++
		case KPlus:
			kp++
			fromPhi = fromPhi || ev.daughter(i)
		case KMinus:
			km++
			fromPhi = fromPhi || ev.daughter(i)
		case Proton:
			p++
		}
	}

	return e == 1 && kp >= 1 && km >= 1 && p >= 1 && fromPhi
}

// IsMissingKMinusTopology keeps events with exactly one electron and at
// least one K⁺ and proton. The K⁻ is not required since it is inferred.
func IsMissingKMinusTopology(ev *Event) bool {
	e, kp, p := 0, 0, 0
	for i := range ev.PID {
		if !ev.Pass[i] {
			continue
		}
		switch PID(ev.PID[i]) {
		case Electron:
			e++
		case KPlus:
			kp++
		case Proton:
			p++
		}
	}
	return e == 1 && kp >= 1 && p >= 1
}

// PassPi0Veto rejects events in which any passing particle is flagged as
// a resonance daughter, then requires exactly one electron, photon and
// proton.
func PassPi0Veto(ev *Event) bool {
	e, g, p := 0, 0, 0
	for i := range ev.PID {
		if !ev.Pass[i] {
			continue
		}
		if ev.daughter(i) {
			return false
		}
		switch PID(ev.PID[i]) {
		case Electron:
			e++
		case Photon:
			g++
		case Proton:
			p++
		}
	}
	return e == 1 && g == 1 && p == 1
}

func (ev *Event) daughter(i int) bool {
	return i < len(ev.DaughterPass) && ev.DaughterPass[i]
}
