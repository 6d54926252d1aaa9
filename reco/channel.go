package reco

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/decibelcooper/phiana/event"
	"github.com/decibelcooper/phiana/kin"
)

// Channel is a reconstruction hypothesis: which final-state particle, if
// any, is inferred from energy-momentum conservation.
type Channel int

const (
	// Full requires all four final-state particles to be measured.
	Full Channel = iota
	// MissingKMinus infers the K⁻; this is the exclusive K⁺ channel.
	MissingKMinus
	// MissingKPlus infers the K⁺; this is the exclusive K⁻ channel.
	MissingKPlus
)

var channelNames = map[string]Channel{
	"full":         Full,
	"missing-km":   MissingKMinus,
	"missing-kp":   MissingKPlus,
	"exclusive-kp": MissingKMinus,
	"exclusive-km": MissingKPlus,
}

func (c Channel) String() string {
	switch c {
	case Full:
		return "full"
	case MissingKMinus:
		return "missing-km"
	case MissingKPlus:
		return "missing-kp"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// ParseChannel accepts the channel names and the exclusive-K aliases.
func ParseChannel(s string) (Channel, error) {
	c, ok := channelNames[strings.ToLower(s)]
	if !ok {
		names := maps.Keys(channelNames)
		slices.Sort(names)
		return Full, fmt.Errorf("unknown channel %q (want one of %s)", s, strings.Join(names, ", "))
	}
	return c, nil
}

func (c Channel) missing() (role, bool) {
	switch c {
	case MissingKMinus:
		return kMinus, true
	case MissingKPlus:
		return kPlus, true
	}
	return role{}, false
}

// role names the columns of one final-state particle.
type role struct {
	pid  event.PID
	mass float64
	comp string // prefix of the momentum components
	rec  string // prefix of p, theta, phi
}

var (
	electron = role{pid: event.Electron, mass: kin.ElectronMass, comp: "ele", rec: "recel"}
	proton   = role{pid: event.Proton, mass: kin.ProtonMass, comp: "pro", rec: "recpro"}
	kMinus   = role{pid: event.KMinus, mass: kin.KaonMass, comp: "kMinus", rec: "reckMinus"}
	kPlus    = role{pid: event.KPlus, mass: kin.KaonMass, comp: "kPlus", rec: "reckPlus"}
)

// roles is in the order of the observable tuple.
var roles = []role{electron, proton, kMinus, kPlus}

func (r role) measured() []string {
	return []string{r.comp + "_px", r.comp + "_py", r.comp + "_pz"}
}

func (r role) missing() []string {
	return []string{r.comp + "_miss_px", r.comp + "_miss_py", r.comp + "_miss_pz"}
}

func (r role) polar() []string {
	return []string{r.rec + "_p", r.rec + "_theta", r.rec + "_phi"}
}

func (r role) region() string {
	return r.comp + "_det_region"
}
