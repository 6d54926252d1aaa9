// Package frame evaluates a statically ordered list of per-event stages
// over a stream of events.
//
// A Plan starts from the raw particle columns of an event and grows by
// appending Define and Filter stages. Every stage names its inputs, and
// an input must be a raw column or a column defined by an earlier stage,
// so the plan is a dependency-ordered graph by construction. Plans are
// immutable: appending a stage returns a new Plan and leaves the
// receiver untouched, which lets several channels branch off a common
// prefix.
package frame

import (
	"fmt"
	"maps"

	"github.com/decibelcooper/phiana/event"
)

// ErrUndefined reports a stage input that is neither a raw column nor a
// previously defined column.
type ErrUndefined struct {
	Stage  string
	Column string
}

func (e *ErrUndefined) Error() string {
	return fmt.Sprintf("stage %q: column %q is not defined", e.Stage, e.Column)
}

// ErrRedefined reports a column defined twice.
type ErrRedefined struct {
	Stage  string
	Column string
}

func (e *ErrRedefined) Error() string {
	return fmt.Sprintf("stage %q: column %q is already defined", e.Stage, e.Column)
}

type stage struct {
	label   string
	inputs  []string
	outputs []string
	slots   []int // input slots
	first   int   // slot of the first output
	eval    func(ev *event.Event, in, out []Value) bool
}

// StageInfo describes one stage of a plan.
type StageInfo struct {
	Label   string
	Inputs  []string
	Outputs []string
}

type Plan struct {
	raw     map[string]bool
	columns []string
	index   map[string]int
	stages  []stage
	maxIn   int
	err     error
}

// NewPlan returns an empty plan over the raw event columns.
func NewPlan() *Plan {
	raw := make(map[string]bool, len(event.Columns))
	for _, c := range event.Columns {
		raw[c] = true
	}
	return &Plan{raw: raw, index: map[string]int{}}
}

// Err returns the first error recorded while building the plan.
func (p *Plan) Err() error {
	return p.err
}

// Columns returns the defined columns in definition order.
func (p *Plan) Columns() []string {
	return append([]string(nil), p.columns...)
}

func (p *Plan) Has(column string) bool {
	_, ok := p.index[column]
	return ok
}

func (p *Plan) Stages() []StageInfo {
	infos := make([]StageInfo, len(p.stages))
	for i, s := range p.stages {
		infos[i] = StageInfo{Label: s.label, Inputs: s.inputs, Outputs: s.outputs}
	}
	return infos
}

// Define appends a stage computing one column from defined columns.
func (p *Plan) Define(name string, inputs []string, fn func(in []Value) Value) *Plan {
	return p.add(name, inputs, false, []string{name}, func(_ *event.Event, in, out []Value) bool {
		out[0] = fn(in)
		return true
	})
}

// DefineN appends a stage computing several columns at once. fn must
// return exactly len(names) values.
func (p *Plan) DefineN(label string, names, inputs []string, fn func(in []Value) []Value) *Plan {
	return p.add(label, inputs, false, names, func(_ *event.Event, in, out []Value) bool {
		res := fn(in)
		if len(res) != len(out) {
			panic(fmt.Sprintf("frame: stage %q returned %d values, want %d", label, len(res), len(out)))
		}
		copy(out, res)
		return true
	})
}

// DefineFromEvent appends a stage computing columns from the raw
// particle arrays it declares.
func (p *Plan) DefineFromEvent(label string, names, raw []string, fn func(ev *event.Event) []Value) *Plan {
	return p.add(label, raw, true, names, func(ev *event.Event, _, out []Value) bool {
		res := fn(ev)
		if len(res) != len(out) {
			panic(fmt.Sprintf("frame: stage %q returned %d values, want %d", label, len(res), len(out)))
		}
		copy(out, res)
		return true
	})
}

// Filter appends a stage dropping events for which fn is false.
func (p *Plan) Filter(label string, inputs []string, fn func(in []Value) bool) *Plan {
	return p.add(label, inputs, false, nil, func(_ *event.Event, in, _ []Value) bool {
		return fn(in)
	})
}

// FilterEvent appends a stage dropping events by their raw particle arrays.
func (p *Plan) FilterEvent(label string, raw []string, fn func(ev *event.Event) bool) *Plan {
	return p.add(label, raw, true, nil, func(ev *event.Event, _, _ []Value) bool {
		return fn(ev)
	})
}

func (p *Plan) add(label string, inputs []string, raw bool, outputs []string, eval func(ev *event.Event, in, out []Value) bool) *Plan {
	if p.err != nil {
		return p
	}

	next := &Plan{
		raw:     p.raw,
		columns: p.columns[:len(p.columns):len(p.columns)],
		index:   maps.Clone(p.index),
		stages:  p.stages[:len(p.stages):len(p.stages)],
		maxIn:   p.maxIn,
	}

	s := stage{
		label:   label,
		inputs:  append([]string(nil), inputs...),
		outputs: append([]string(nil), outputs...),
		first:   len(p.columns),
		eval:    eval,
	}
	for _, in := range inputs {
		if raw {
			if !p.raw[in] {
				next.err = &ErrUndefined{Stage: label, Column: in}
				return next
			}
			continue
		}
		slot, ok := p.index[in]
		if !ok {
			next.err = &ErrUndefined{Stage: label, Column: in}
			return next
		}
		s.slots = append(s.slots, slot)
	}
	for _, out := range outputs {
		if _, ok := next.index[out]; ok || p.raw[out] {
			next.err = &ErrRedefined{Stage: label, Column: out}
			return next
		}
		next.index[out] = len(next.columns)
		next.columns = append(next.columns, out)
	}
	if len(s.slots) > next.maxIn {
		next.maxIn = len(s.slots)
	}
	next.stages = append(next.stages, s)
	return next
}

// Eval runs every stage on one event. It reports false when a filter
// rejects the event, when the event arrays are misaligned, or when the
// plan has a build error.
func (p *Plan) Eval(ev *event.Event) (Record, bool) {
	if p.err != nil || ev.Validate() != nil {
		return Record{}, false
	}
	return p.eval(ev)
}

func (p *Plan) eval(ev *event.Event) (Record, bool) {
	vals := make([]Value, len(p.columns))
	in := make([]Value, 0, p.maxIn)
	for i := range p.stages {
		s := &p.stages[i]
		in = in[:0]
		for _, slot := range s.slots {
			in = append(in, vals[slot])
		}
		out := vals[s.first : s.first+len(s.outputs)]
		if !s.eval(ev, in, out) {
			return Record{}, false
		}
	}
	return Record{plan: p, ev: ev, vals: vals}, true
}

// Record is the read-only result of evaluating a plan on one event.
type Record struct {
	plan *Plan
	ev   *event.Event
	vals []Value
}

func (r Record) Event() *event.Event {
	return r.ev
}

func (r Record) Get(column string) (Value, bool) {
	if r.plan == nil {
		return Missing, false
	}
	i, ok := r.plan.index[column]
	if !ok {
		return Missing, false
	}
	return r.vals[i], true
}

// Value returns the named column, Missing if it is not defined.
func (r Record) Value(column string) Value {
	v, _ := r.Get(column)
	return v
}

func (r Record) Columns() []string {
	if r.plan == nil {
		return nil
	}
	return r.plan.Columns()
}

// Values returns the columns in definition order.
func (r Record) Values() []Value {
	return append([]Value(nil), r.vals...)
}
