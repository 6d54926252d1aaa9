package reco

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/decibelcooper/phiana/dismath"
	"github.com/decibelcooper/phiana/event"
	"github.com/decibelcooper/phiana/frame"
	"github.com/decibelcooper/phiana/kin"
)

const beam = 10.6

var (
	eleP = r3.Vec{X: 0.5, Y: -0.25, Z: 4}
	proP = r3.Vec{X: -0.25, Y: 0.5, Z: 1.5}
	kmP  = r3.Vec{X: 0.125, Y: -0.5, Z: 2}
	kpP  = r3.Vec{X: -0.375, Y: 0.25, Z: 2.5}
)

func particle(pid event.PID, p r3.Vec, status int16) event.Particle {
	return event.Particle{PID: pid, P: p, Status: status, Pass: true}
}

func fullEvent() event.Event {
	return event.New(0,
		particle(event.Electron, eleP, 1100),
		particle(event.Proton, proP, 4100),
		particle(event.KMinus, kmP, 2100),
		particle(event.KPlus, kpP, -2200),
	)
}

func polar(v r3.Vec) dismath.Polar {
	return dismath.Polar{P: kin.Momentum(v), Theta: kin.Theta(v), Phi: kin.Phi(v)}
}

func eval(t *testing.T, p *frame.Plan, ev event.Event) (frame.Record, bool) {
	t.Helper()
	require.NoError(t, p.Err())
	return p.Eval(&ev)
}

func TestFullChannel(t *testing.T) {
	p := ReconstructFull(frame.NewPlan(), beam)
	rec, ok := eval(t, p, fullEvent())
	require.True(t, ok)

	assert.Equal(t, frame.Some(0.5), rec.Value("ele_px"))
	assert.Equal(t, frame.Some(2.5), rec.Value("kPlus_pz"))
	assert.InDelta(t, kin.Momentum(eleP), rec.Value("recel_p").F, 1e-12)
	assert.InDelta(t, kin.Theta(proP), rec.Value("recpro_theta").F, 1e-12)
	assert.InDelta(t, kin.Phi(kmP), rec.Value("reckMinus_phi").F, 1e-12)

	assert.Equal(t, frame.Some(float64(event.RegionFD)), rec.Value("kMinus_det_region"))
	assert.Equal(t, frame.Some(float64(event.RegionFD)), rec.Value("kPlus_det_region"))
	assert.Equal(t, frame.Some(float64(event.RegionCD)), rec.Value("pro_det_region"))
	assert.Equal(t, frame.Some(float64(event.RegionFT)), rec.Value("ele_det_region"))

	assert.InDelta(t, kin.InvMass(kpP, kmP, kin.KaonMass, kin.KaonMass), rec.Value(InvMassKpKm).F, 1e-12)

	want := dismath.Default().Eval(dismath.Tuple{
		Beam:     beam,
		Electron: polar(eleP),
		Proton:   polar(proP),
		KMinus:   polar(kmP),
		KPlus:    polar(kpP),
	})
	for i, name := range dismath.Default().Names() {
		v := rec.Value(name)
		require.True(t, v.OK, name)
		assert.InDelta(t, want[i], v.F, 1e-9, name)
	}

	assert.False(t, p.Has("Mx2_epKm_forCut"))
	assert.False(t, p.Has("kMinus_miss_px"))
}

func TestFullChannelDropsIncomplete(t *testing.T) {
	p := ReconstructFull(frame.NewPlan(), beam)
	ev := event.New(0,
		particle(event.Electron, eleP, 0),
		particle(event.Proton, proP, 0),
		particle(event.KMinus, kmP, 0),
		event.Particle{PID: event.KPlus, P: kpP, Pass: false},
	)
	_, ok := eval(t, p, ev)
	assert.False(t, ok)
}

func TestFullChannelFirstCandidate(t *testing.T) {
	p := ReconstructFull(frame.NewPlan(), beam)
	ev := fullEvent()
	ev.Append(particle(event.Electron, r3.Vec{Z: 7}, 0))
	rec, ok := eval(t, p, ev)
	require.True(t, ok)
	assert.Equal(t, frame.Some(4), rec.Value("ele_pz"))
}

func TestMissingKMinus(t *testing.T) {
	p := ReconstructExclusiveKPlus(frame.NewPlan(), beam)
	assert.False(t, p.Has("kMinus_px"))
	assert.False(t, p.Has(InvMassKpKm))
	assert.False(t, p.Has("ele_det_region"))

	ev := event.New(0,
		particle(event.Electron, eleP, 0),
		particle(event.Proton, proP, 0),
		particle(event.KPlus, kpP, 0),
	)
	rec, ok := eval(t, p, ev)
	require.True(t, ok)

	miss := kin.ReconstructMissing(beam,
		kin.Measured{P: eleP, Mass: kin.ElectronMass},
		kin.Measured{P: proP, Mass: kin.ProtonMass},
		kin.Measured{P: kpP, Mass: kin.KaonMass},
	)
	assert.InDelta(t, miss.X, rec.Value("kMinus_miss_px").F, 1e-12)
	assert.InDelta(t, miss.Y, rec.Value("kMinus_miss_py").F, 1e-12)
	assert.InDelta(t, miss.Z, rec.Value("kMinus_miss_pz").F, 1e-12)
	assert.InDelta(t, kin.Momentum(miss), rec.Value("reckMinus_p").F, 1e-12)
	assert.InDelta(t, kin.Theta(miss), rec.Value("reckMinus_theta").F, 1e-12)

	mx2 := rec.Value("Mx2_epKm")
	require.True(t, mx2.OK)
	assert.Equal(t, mx2, rec.Value("Mx2_epKm_forCut"))
	root := rec.Value("Mx_epKm_forCut")
	if mx2.F > 0 {
		require.True(t, root.OK)
		assert.InDelta(t, math.Sqrt(mx2.F), root.F, 1e-12)
	} else {
		assert.False(t, root.OK)
	}
	assert.True(t, p.Has("Mx2_epKp_forCut"))
	assert.True(t, p.Has("Mx_epKp_forCut"))
}

func TestMissingKPlus(t *testing.T) {
	p := ReconstructExclusiveKMinus(frame.NewPlan(), beam)
	assert.False(t, p.Has("kPlus_px"))
	assert.True(t, p.Has("kPlus_miss_px"))
	assert.True(t, p.Has("reckPlus_phi"))

	ev := event.New(0,
		particle(event.Electron, eleP, 0),
		particle(event.Proton, proP, 0),
		particle(event.KMinus, kmP, 0),
	)
	rec, ok := eval(t, p, ev)
	require.True(t, ok)

	miss := kin.ReconstructMissing(beam,
		kin.Measured{P: eleP, Mass: kin.ElectronMass},
		kin.Measured{P: proP, Mass: kin.ProtonMass},
		kin.Measured{P: kmP, Mass: kin.KaonMass},
	)
	assert.InDelta(t, miss.X, rec.Value("kPlus_miss_px").F, 1e-12)
	assert.InDelta(t, kin.Phi(miss), rec.Value("reckPlus_phi").F, 1e-12)
}

func TestMissingChannelAbsentInput(t *testing.T) {
	p := ReconstructMissingKMinus(frame.NewPlan(), beam)
	ev := event.New(0,
		particle(event.Electron, eleP, 0),
		particle(event.KPlus, kpP, 0),
	)
	rec, ok := eval(t, p, ev)
	require.True(t, ok)

	for _, name := range []string{"pro_px", "kMinus_miss_px", "reckMinus_p", "recpro_theta", "Q2", "Mx2_epKm_forCut", "Mx_epKm_forCut"} {
		v := rec.Value(name)
		assert.False(t, v.OK, name)
		assert.Equal(t, frame.Sentinel, v.Float64(), name)
	}
	assert.True(t, rec.Value("recel_p").OK)
}

func TestCutAliasNonPositive(t *testing.T) {
	table := dismath.Table{
		{Name: "Mx2_epKm", Fn: func(*dismath.Kinematics) float64 { return -0.5 }},
	}
	p := ReconstructMissingKMinus(frame.NewPlan(), beam, WithTable(table))
	assert.False(t, p.Has("Q2"))
	assert.False(t, p.Has("Mx2_epKp_forCut"))

	ev := event.New(0,
		particle(event.Electron, eleP, 0),
		particle(event.Proton, proP, 0),
		particle(event.KPlus, kpP, 0),
	)
	rec, ok := eval(t, p, ev)
	require.True(t, ok)
	assert.Equal(t, frame.Some(-0.5), rec.Value("Mx2_epKm_forCut"))
	assert.False(t, rec.Value("Mx_epKm_forCut").OK)
}

func TestParseChannel(t *testing.T) {
	for s, want := range map[string]Channel{
		"full":         Full,
		"missing-km":   MissingKMinus,
		"Missing-KP":   MissingKPlus,
		"exclusive-kp": MissingKMinus,
		"exclusive-km": MissingKPlus,
	} {
		got, err := ParseChannel(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	_, err := ParseChannel("phi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclusive-km, exclusive-kp, full, missing-km, missing-kp")

	assert.Equal(t, "missing-kp", MissingKPlus.String())
}

func TestApplySelections(t *testing.T) {
	p, err := ApplySelections(frame.NewPlan(), []string{"phi", "pi0-veto"}, event.IgnoreDaughter)
	require.NoError(t, err)
	assert.Len(t, p.Stages(), 2)

	_, err = ApplySelections(frame.NewPlan(), []string{"dvcs"}, event.IgnoreDaughter)
	assert.ErrorContains(t, err, "missing-km, phi, pi0-veto")

	assert.Equal(t, []string{"missing-km", "phi", "pi0-veto"}, Selections())
}

func TestSelectThenReconstruct(t *testing.T) {
	p := SelectExclusivePhiEvent(frame.NewPlan(), event.RequireKaonDaughter)
	p = ReconstructFull(p, beam)
	require.NoError(t, p.Err())

	flagged := fullEvent()
	flagged.DaughterPass[3] = true
	unflagged := fullEvent()
	unflagged.Entry = 1
	twoElectrons := fullEvent()
	twoElectrons.Entry = 2
	twoElectrons.Append(particle(event.Electron, r3.Vec{Z: 3}, 0))
	twoElectrons.DaughterPass[2] = true

	recs, stats, err := p.Collect(context.Background(), frame.SliceSource{flagged, unflagged, twoElectrons}, frame.WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, frame.Stats{Read: 3, Kept: 1}, stats)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(0), recs[0].Event().Entry)
}

func TestMissingKMinusSelection(t *testing.T) {
	p := ReconstructMissingKMinus(SelectPhiEventMissingKMinus(frame.NewPlan()), beam)
	noProton := event.New(0,
		particle(event.Electron, eleP, 0),
		particle(event.KPlus, kpP, 0),
	)
	_, ok := eval(t, p, noProton)
	assert.False(t, ok)

	pi0 := RejectPi0TwoPhoton(frame.NewPlan())
	ok3 := event.New(0,
		particle(event.Electron, eleP, 0),
		particle(event.Photon, r3.Vec{Z: 1}, 0),
		particle(event.Proton, proP, 0),
	)
	_, ok = eval(t, pi0, ok3)
	assert.True(t, ok)
	ok3.Append(particle(event.Photon, r3.Vec{Z: 2}, 0))
	_, ok = eval(t, pi0, ok3)
	assert.False(t, ok)
}
