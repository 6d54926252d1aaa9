package reco

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/decibelcooper/phiana/event"
	"github.com/decibelcooper/phiana/frame"
)

var selectionColumns = []string{event.ColPID, event.ColPass, event.ColDaughterPass}

// SelectExclusivePhiEvent keeps events with one electron and at least one
// K⁺, K⁻ and proton.
func SelectExclusivePhiEvent(p *frame.Plan, policy event.DaughterPolicy) *frame.Plan {
	return p.FilterEvent("exclusive phi ("+policy.String()+" daughter)", selectionColumns, func(ev *event.Event) bool {
		return event.IsExclusivePhi(ev, policy)
	})
}

// SelectPhiEventMissingKMinus keeps events with one electron and at least
// one K⁺ and proton.
func SelectPhiEventMissingKMinus(p *frame.Plan) *frame.Plan {
	return p.FilterEvent("missing K- topology", selectionColumns, event.IsMissingKMinusTopology)
}

// RejectPi0TwoPhoton keeps events whose passing particles are exactly one
// electron, one photon and one proton, none of them a resonance daughter.
func RejectPi0TwoPhoton(p *frame.Plan) *frame.Plan {
	return p.FilterEvent("pi0 veto", selectionColumns, event.PassPi0Veto)
}

// Selection names an event filter that can be chosen at run time.
type Selection string

const (
	SelectPhi       Selection = "phi"
	SelectMissingKm Selection = "missing-km"
	SelectPi0Veto   Selection = "pi0-veto"
)

var selections = map[Selection]func(*frame.Plan, event.DaughterPolicy) *frame.Plan{
	SelectPhi: SelectExclusivePhiEvent,
	SelectMissingKm: func(p *frame.Plan, _ event.DaughterPolicy) *frame.Plan {
		return SelectPhiEventMissingKMinus(p)
	},
	SelectPi0Veto: func(p *frame.Plan, _ event.DaughterPolicy) *frame.Plan {
		return RejectPi0TwoPhoton(p)
	},
}

// Selections returns the known selection names, sorted.
func Selections() []string {
	names := make([]string, 0, len(selections))
	for _, s := range maps.Keys(selections) {
		names = append(names, string(s))
	}
	slices.Sort(names)
	return names
}

// ApplySelections appends the named filters to p in order.
func ApplySelections(p *frame.Plan, names []string, policy event.DaughterPolicy) (*frame.Plan, error) {
	for _, name := range names {
		fn, ok := selections[Selection(strings.ToLower(name))]
		if !ok {
			return nil, fmt.Errorf("unknown selection %q (want one of %s)", name, strings.Join(Selections(), ", "))
		}
		p = fn(p, policy)
	}
	return p, nil
}
