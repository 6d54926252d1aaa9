package dismath

// Func computes one observable.
type Func func(*Kinematics) float64

// Entry binds an observable name, used as the output column, to its
// accessor.
type Entry struct {
	Name string
	Fn   Func
}

// Table is an ordered set of observables.
type Table []Entry

var defaultTable = Table{
	{"Q2", (*Kinematics).Q2},
	{"xB", (*Kinematics).XB},
	{"t", (*Kinematics).T},
	{"phi", (*Kinematics).Phi},
	{"W", (*Kinematics).W},
	{"nu", (*Kinematics).Nu},
	{"y", (*Kinematics).Y},

	{"Mx2_ep", (*Kinematics).Mx2EP},
	{"Emiss", (*Kinematics).EMiss},
	{"PTmiss", (*Kinematics).PTMiss},
	{"Mx2_epKpKm", (*Kinematics).Mx2EPKpKm},
	{"Mx2_eKpKm", (*Kinematics).Mx2EKpKm},
	{"Mx2_epKp", (*Kinematics).Mx2EPKp},
	{"Mx2_epKm", (*Kinematics).Mx2EPKm},
	{"DeltaPhi", (*Kinematics).DeltaPhi},
	{"Theta_g_phimeson", (*Kinematics).ThetaGPhiMeson},
	{"Theta_e_phimeson", (*Kinematics).ThetaEPhiMeson},
	{"DeltaE", (*Kinematics).DeltaE},
}

// Default returns the standard observable set. The returned table is
// shared and must not be modified.
func Default() Table {
	return defaultTable
}

func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, e := range t {
		names[i] = e.Name
	}
	return names
}

func (t Table) Lookup(name string) (Func, bool) {
	for _, e := range t {
		if e.Name == name {
			return e.Fn, true
		}
	}
	return nil, false
}

// Eval computes every observable of the table for one tuple, in table
// order.
func (t Table) Eval(tuple Tuple) []float64 {
	k := NewKinematics(tuple)
	out := make([]float64, len(t))
	for i, e := range t {
		out[i] = e.Fn(k)
	}
	return out
}
