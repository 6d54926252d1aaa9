package frame

import "strconv"

// Sentinel is written in place of a missing value by the output sinks.
const Sentinel = -999.0

// Value is a scalar column entry. OK is false when the quantity could not
// be computed for the event.
type Value struct {
	F  float64
	OK bool
}

var Missing = Value{}

func Some(f float64) Value {
	return Value{F: f, OK: true}
}

func (v Value) Or(def float64) float64 {
	if !v.OK {
		return def
	}
	return v.F
}

// Float64 returns the value, or Sentinel when it is missing.
func (v Value) Float64() float64 {
	return v.Or(Sentinel)
}

func (v Value) String() string {
	if !v.OK {
		return "missing"
	}
	return strconv.FormatFloat(v.F, 'g', -1, 64)
}

// All reports whether every value is present.
func All(vs ...Value) bool {
	for _, v := range vs {
		if !v.OK {
			return false
		}
	}
	return true
}
