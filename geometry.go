package goklab

import (
	"maps"
	"math"
	"slices"
)

const (
	// NonDimensional is the dimensionality of a referenced but not
	// distributed dimension. Encoded as ".".
	NonDimensional = -1
	// Undefined marks an unspecified shape axis.
	Undefined int64 = -1
	// InfiniteSize is only admitted for the time dimension. Encoded as "∞".
	InfiniteSize int64 = math.MaxInt64
)

// Kind tells which of the three mutually exclusive forms a Geometry takes.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindScalar
	KindDimensioned
)

// Geometry is the space/time extent descriptor submitted with an
// observation request. A dimensioned geometry may chain to exactly one
// child, which models composite multi-part extents.
type Geometry struct {
	Kind        Kind
	Granularity Granularity
	Dimensions  []*Dimension
	Child       *Geometry
}

// Empty returns the empty geometry ("X").
func Empty() *Geometry { return &Geometry{Kind: KindEmpty} }

// Scalar returns the scalar geometry ("*").
func Scalar() *Geometry { return &Geometry{Kind: KindScalar} }

// NewGeometry returns a single-granularity geometry over dims. With no
// dimensions the result is Empty.
func NewGeometry(dims ...*Dimension) *Geometry {
	if len(dims) == 0 {
		return Empty()
	}
	return &Geometry{Kind: KindDimensioned, Dimensions: dims}
}

func (g *Geometry) IsEmpty() bool  { return g == nil || g.Kind == KindEmpty }
func (g *Geometry) IsScalar() bool { return g != nil && g.Kind == KindScalar }

// Dimension returns the first dimension of the given type, or nil.
func (g *Geometry) Dimension(t DimensionType) *Dimension {
	if g == nil {
		return nil
	}
	for _, d := range g.Dimensions {
		if d.Type == t {
			return d
		}
	}
	return nil
}

// Copy returns a deep copy of g including its child chain.
func (g *Geometry) Copy() *Geometry {
	if g == nil {
		return nil
	}
	ret := &Geometry{Kind: g.Kind, Granularity: g.Granularity}
	for _, d := range g.Dimensions {
		ret.Dimensions = append(ret.Dimensions, d.Copy())
	}
	ret.Child = g.Child.Copy()
	return ret
}

// Equal reports structural equality: kind, granularity, dimensions in order
// and the child chain. Coverage is not compared since it is not serialized.
func (g *Geometry) Equal(o *Geometry) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.Kind != o.Kind || g.Granularity != o.Granularity || len(g.Dimensions) != len(o.Dimensions) {
		return false
	}
	for i := range g.Dimensions {
		if !g.Dimensions[i].Equal(o.Dimensions[i]) {
			return false
		}
	}
	if (g.Child == nil) != (o.Child == nil) {
		return false
	}
	return g.Child == nil || g.Child.Equal(o.Child)
}

// String returns the canonical encoding, or a diagnostic when g cannot be
// encoded.
func (g *Geometry) String() string {
	s, err := g.Encode()
	if err != nil {
		return "<invalid geometry: " + err.Error() + ">"
	}
	return s
}

// Dimension represents one axis of extent.
type Dimension struct {
	Type    DimensionType
	Regular bool
	Generic bool
	// Dimensionality is the number of sub-axes, or NonDimensional.
	Dimensionality int
	// Shape holds per-axis sizes; nil means undefined.
	Shape      []int64
	Parameters Parameters
	// Coverage is the fraction of the dimension actually covered. It is
	// not part of the grammar.
	Coverage float64
}

// NewDimension returns a dimension with empty parameters and full coverage.
func NewDimension(t DimensionType, dimensionality int) *Dimension {
	return &Dimension{
		Type:           t,
		Dimensionality: dimensionality,
		Parameters:     Parameters{},
		Coverage:       1.0,
	}
}

// EffectiveShape returns Shape, or Undefined repeated Dimensionality times
// when no shape was set.
func (d *Dimension) EffectiveShape() []int64 {
	if d.Shape != nil {
		return d.Shape
	}
	n := max(d.Dimensionality, 0)
	ret := make([]int64, n)
	for i := range ret {
		ret[i] = Undefined
	}
	return ret
}

// Size is the product of the shape, or Undefined without a shape.
func (d *Dimension) Size() int64 {
	if d.Shape == nil {
		return Undefined
	}
	ret := int64(1)
	for _, l := range d.Shape {
		ret *= l
	}
	return ret
}

// Copy deep-copies shape and parameters; other fields are by value.
func (d *Dimension) Copy() *Dimension {
	ret := *d
	ret.Shape = slices.Clone(d.Shape)
	ret.Parameters = make(Parameters, len(d.Parameters))
	for k, v := range d.Parameters {
		ret.Parameters[k] = v.clone()
	}
	return &ret
}

// Equal compares every serialized field. An absent shape equals a shape of
// all Undefined axes since both encode the same way.
func (d *Dimension) Equal(o *Dimension) bool {
	if d.Type != o.Type || d.Regular != o.Regular || d.Generic != o.Generic || d.Dimensionality != o.Dimensionality {
		return false
	}
	if isUndefined(d.EffectiveShape()) != isUndefined(o.EffectiveShape()) {
		return false
	}
	if !isUndefined(d.EffectiveShape()) && !slices.Equal(d.Shape, o.Shape) {
		return false
	}
	return maps.EqualFunc(d.Parameters, o.Parameters, ParamValue.Equal)
}

// isUndefined reports whether any axis of shape is negative.
func isUndefined(shape []int64) bool {
	for _, l := range shape {
		if l < 0 {
			return true
		}
	}
	return false
}
