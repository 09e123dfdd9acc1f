package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Range is an interval of numeric values. Unset bounds are infinite.
type Range struct {
	Lower          float64
	Upper          float64
	LowerExclusive bool
	UpperExclusive bool
}

// NewRange returns the closed interval [lower, upper].
func NewRange(lower, upper float64) Range {
	return Range{Lower: lower, Upper: upper}
}

// Unbounded returns (-∞, +∞).
func Unbounded() Range {
	return Range{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

func (r Range) LowerInfinite() bool { return math.IsInf(r.Lower, -1) }
func (r Range) UpperInfinite() bool { return math.IsInf(r.Upper, 1) }

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	if v < r.Lower || (r.LowerExclusive && v == r.Lower) {
		return false
	}
	if v > r.Upper || (r.UpperExclusive && v == r.Upper) {
		return false
	}
	return true
}

// String renders the range the way observable semantics spell it.
func (r Range) String() string {
	return formatBound(r.Lower) + " to " + formatBound(r.Upper)
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Observable is the textual peer of an engine observable. Modifiers can each
// be applied once; range and unit exclude each other. A misuse is recorded
// and reported by Err, so calls chain:
//
//	o := engine.NewObservable("geography:Elevation").Unit("m").Named("elevation")
//	if err := o.Err(); err != nil { ... }
type Observable struct {
	semantics string
	name      string
	unit      string
	value     any
	rng       *Range
	err       error
}

// NewObservable wraps semantics such as "earth:Region".
func NewObservable(semantics string) *Observable {
	return &Observable{semantics: strings.TrimSpace(semantics)}
}

// Named sets the name used to find the observation in its context.
func (o *Observable) Named(name string) *Observable {
	if o.name != "" {
		return o.fail("name")
	}
	o.name = name
	return o
}

func (o *Observable) Range(r Range) *Observable {
	if o.rng != nil || o.unit != "" {
		return o.fail("range")
	}
	o.rng = &r
	return o
}

// Value makes the observable a literal: "{value} as {semantics}".
func (o *Observable) Value(v any) *Observable {
	if o.value != nil {
		return o.fail("value")
	}
	o.value = v
	return o
}

// Unit sets a unit or currency. It is not validated.
func (o *Observable) Unit(unit string) *Observable {
	if o.rng != nil || o.unit != "" {
		return o.fail("unit")
	}
	o.unit = unit
	return o
}

func (o *Observable) fail(modifier string) *Observable {
	if o.err == nil {
		o.err = fmt.Errorf("%w: %s of %q cannot be set more than once", ErrIllegalState, modifier, o.semantics)
	}
	return o
}

// Err returns the first modifier misuse.
func (o *Observable) Err() error { return o.err }

func (o *Observable) Name() string      { return o.name }
func (o *Observable) Semantics() string { return o.semantics }

func (o *Observable) String() string {
	var b strings.Builder
	if o.value != nil {
		fmt.Fprintf(&b, "%v as ", o.value)
	}
	b.WriteString(o.semantics)
	if o.rng != nil {
		b.WriteString(" ")
		b.WriteString(o.rng.String())
	}
	if o.unit != "" {
		b.WriteString(" in ")
		b.WriteString(o.unit)
	}
	if o.name != "" {
		b.WriteString(" named ")
		b.WriteString(o.name)
	}
	return b.String()
}
