package goklab

import (
	"regexp"
	"strings"
	"time"
)

// DefaultProjection is used by Grid when no projection is given.
const DefaultProjection = "EPSG:4326"

// Time representation values for the ttype parameter.
const (
	TimePhysical = "PHYSICAL"
	TimeGrid     = "GRID"
)

// Builder assembles common geometries without writing the grammar by hand.
// The first error recorded by any step is returned from Build.
//
//	g, err := goklab.NewBuilder().
//		Grid(goklab.WithURN(wkt), goklab.WithResolution("1 km")).
//		Years(2010).
//		Build()
type Builder struct {
	space    *Dimension
	time     *Dimension
	multiple bool
	err      error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// Region sets an irregular spatial extent of size 1. WKT input is stored under
// "shape", anything else under "urn".
func (b *Builder) Region(urn string) *Builder {
	dim := NewDimension(Space, 2)
	dim.Shape = []int64{1, 1}
	if IsWKT(urn) {
		dim.Parameters[ParamShape] = StringParam(urn)
	} else {
		dim.Parameters[ParamURN] = StringParam(urn)
	}
	b.space = dim
	return b
}

type gridConfig struct {
	bbox       []float64
	resolution string
	urn        string
	projection string
}

// GridOption configures Grid.
type GridOption func(*gridConfig)

// WithBBox sets the bounding box as west, east, south, north.
func WithBBox(x1, x2, y1, y2 float64) GridOption {
	return func(c *gridConfig) { c.bbox = []float64{x1, x2, y1, y2} }
}

// WithResolution sets the grid cell size, e.g. "1 km".
func WithResolution(res string) GridOption {
	return func(c *gridConfig) { c.resolution = res }
}

// WithURN sets the extent from a resource URN or a WKT literal.
func WithURN(urn string) GridOption {
	return func(c *gridConfig) { c.urn = urn }
}

// WithProjection overrides DefaultProjection for bounding boxes.
func WithProjection(proj string) GridOption {
	return func(c *gridConfig) { c.projection = proj }
}

// Grid sets a regular two-dimensional spatial extent. Either a bounding box
// (optionally with a resolution) or a URN together with a resolution is
// required; a bounding box takes precedence when both are given.
func (b *Builder) Grid(opts ...GridOption) *Builder {
	c := &gridConfig{projection: DefaultProjection}
	for _, o := range opts {
		o(c)
	}
	dim := NewDimension(Space, 2)
	dim.Regular = true
	switch {
	case c.bbox != nil:
		dim.Parameters[ParamBBox] = FloatArrayParam(c.bbox...)
		dim.Parameters[ParamProjection] = StringParam(c.projection)
		if c.resolution != "" {
			dim.Parameters[ParamSpaceGrid] = StringParam(c.resolution)
		}
	case c.urn != "" && c.resolution != "":
		dim.Parameters[ParamSpaceGrid] = StringParam(c.resolution)
		if IsWKT(c.urn) {
			dim.Parameters[ParamShape] = StringParam(c.urn)
		} else {
			dim.Parameters[ParamURN] = StringParam(c.urn)
		}
	default:
		b.fail(singleIssue(CodeInsufficientGrid, nil))
		return b
	}
	b.space = dim
	return b
}

// Years sets the temporal extent. One year gives a single irregular period;
// two years give a regular yearly grid over [y1, y2).
func (b *Builder) Years(years ...int) *Builder {
	switch len(years) {
	case 1:
		dim := NewDimension(Time, 1)
		dim.Shape = []int64{1}
		dim.Parameters[ParamTimeType] = StringParam(TimePhysical)
		dim.Parameters[ParamTimeStart] = IntParam(StartOfYear(years[0]))
		dim.Parameters[ParamTimeEnd] = IntParam(StartOfYear(years[0] + 1))
		b.time = dim
	case 2:
		start, end := years[0], years[1]
		if end <= start {
			b.fail(singleIssue(CodeInvalidYears, map[string]any{"value": years}))
			return b
		}
		dim := NewDimension(Time, 1)
		dim.Regular = true
		dim.Shape = []int64{int64(end - start)}
		dim.Parameters[ParamTimeType] = StringParam(TimeGrid)
		dim.Parameters[ParamTimeStart] = IntParam(StartOfYear(start))
		dim.Parameters[ParamTimeEnd] = IntParam(StartOfYear(end))
		dim.Parameters[ParamTimeScope] = IntParam(1)
		dim.Parameters[ParamTimeUnit] = StringParam(Year.String())
		b.time = dim
	default:
		b.fail(singleIssue(CodeInvalidYears, map[string]any{"value": years}))
	}
	return b
}

// Multiple marks the result as a batch of geometries.
func (b *Builder) Multiple() *Builder {
	b.multiple = true
	return b
}

// Build assembles the configured dimensions. Without any the result is the
// empty geometry.
func (b *Builder) Build() (*Geometry, error) {
	if b.err != nil {
		return nil, b.err
	}
	var dims []*Dimension
	if b.space != nil {
		dims = append(dims, b.space.Copy())
	}
	if b.time != nil {
		dims = append(dims, b.time.Copy())
	}
	g := NewGeometry(dims...)
	if b.multiple && !g.IsEmpty() {
		g.Granularity = Multiple
	}
	return g, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Geometry {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// StartOfYear returns the epoch milliseconds of January 1 of year, 00:00 UTC.
func StartOfYear(year int) int64 {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
}

var wktKeyword = regexp.MustCompile(`(?i)\b(MULTI)?(POLYGON|POINT|LINESTRING)\s*\(`)

// IsWKT reports whether s looks like a WKT geometry literal, optionally
// prefixed by a projection code ("EPSG:4326 POLYGON((...))").
func IsWKT(s string) bool {
	if !wktKeyword.MatchString(s) {
		return false
	}
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && strings.Contains(s, ")")
}
