package goklab

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Well-known dimension parameter names.
const (
	ParamShape      = "shape"  // WKT shape specification.
	ParamURN        = "urn"    // Resource URN for the spatial extent.
	ParamBBox       = "bbox"   // [x1 x2 y1 y2] bounding box.
	ParamProjection = "proj"   // Projection code, e.g. EPSG:4326.
	ParamSpaceGrid  = "sgrid"  // Grid resolution, e.g. "1 km".
	ParamTimeType   = "ttype"  // Time representation.
	ParamTimeStart  = "tstart" // Epoch milliseconds, inclusive.
	ParamTimeEnd    = "tend"   // Epoch milliseconds, exclusive.
	ParamTimeScope  = "tscope" // Resolution multiplier.
	ParamTimeUnit   = "tunit"  // Resolution unit (TimeResolutionType).
)

// ParamKind tags the dynamic type of a ParamValue.
type ParamKind uint8

const (
	ParamString ParamKind = iota
	ParamInt
	ParamFloat
	ParamFloatArray
	ParamIntArray
	ParamBoolArray
)

func (k ParamKind) String() string {
	switch k {
	case ParamString:
		return "string"
	case ParamInt:
		return "int"
	case ParamFloat:
		return "float"
	case ParamFloatArray:
		return "float[]"
	case ParamIntArray:
		return "int[]"
	case ParamBoolArray:
		return "bool[]"
	default:
		return "unknown"
	}
}

// ParamValue is a dimension parameter value. Only the field matching kind is
// meaningful.
type ParamValue struct {
	kind ParamKind

	strVal   string
	intVal   int64
	floatVal float64

	floats []float64
	ints   []int64
	bools  []bool
}

func StringParam(s string) ParamValue { return ParamValue{kind: ParamString, strVal: s} }
func IntParam(i int64) ParamValue     { return ParamValue{kind: ParamInt, intVal: i} }
func FloatParam(f float64) ParamValue { return ParamValue{kind: ParamFloat, floatVal: f} }
func FloatArrayParam(v ...float64) ParamValue {
	return ParamValue{kind: ParamFloatArray, floats: nonNil(v)}
}
func IntArrayParam(v ...int64) ParamValue { return ParamValue{kind: ParamIntArray, ints: nonNil(v)} }
func BoolArrayParam(v ...bool) ParamValue { return ParamValue{kind: ParamBoolArray, bools: nonNil(v)} }

// Kind returns the value's type tag.
func (v ParamValue) Kind() ParamKind { return v.kind }

func (v ParamValue) Str() (string, bool)       { return v.strVal, v.kind == ParamString }
func (v ParamValue) Int() (int64, bool)        { return v.intVal, v.kind == ParamInt }
func (v ParamValue) Float() (float64, bool)    { return v.floatVal, v.kind == ParamFloat }
func (v ParamValue) Floats() ([]float64, bool) { return v.floats, v.kind == ParamFloatArray }
func (v ParamValue) Ints() ([]int64, bool)     { return v.ints, v.kind == ParamIntArray }
func (v ParamValue) Bools() ([]bool, bool)     { return v.bools, v.kind == ParamBoolArray }

// Any returns the value as string, int64, float64, []float64, []int64 or
// []bool.
func (v ParamValue) Any() any {
	switch v.kind {
	case ParamInt:
		return v.intVal
	case ParamFloat:
		return v.floatVal
	case ParamFloatArray:
		return v.floats
	case ParamIntArray:
		return v.ints
	case ParamBoolArray:
		return v.bools
	default:
		return v.strVal
	}
}

// String renders the logical (unescaped) text form: arrays as "[a b c]",
// floats always with a decimal point or exponent.
func (v ParamValue) String() string {
	switch v.kind {
	case ParamInt:
		return strconv.FormatInt(v.intVal, 10)
	case ParamFloat:
		return formatFloat(v.floatVal)
	case ParamFloatArray:
		return joinArray(v.floats, formatFloat)
	case ParamIntArray:
		return joinArray(v.ints, func(i int64) string { return strconv.FormatInt(i, 10) })
	case ParamBoolArray:
		return joinArray(v.bools, strconv.FormatBool)
	default:
		return v.strVal
	}
}

// Equal compares kind and content.
func (v ParamValue) Equal(o ParamValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ParamInt:
		return v.intVal == o.intVal
	case ParamFloat:
		return v.floatVal == o.floatVal
	case ParamFloatArray:
		return slices.Equal(v.floats, o.floats)
	case ParamIntArray:
		return slices.Equal(v.ints, o.ints)
	case ParamBoolArray:
		return slices.Equal(v.bools, o.bools)
	default:
		return v.strVal == o.strVal
	}
}

func (v ParamValue) clone() ParamValue {
	v.floats = slices.Clone(v.floats)
	v.ints = slices.Clone(v.ints)
	v.bools = slices.Clone(v.bools)
	return v
}

// Parameters maps parameter names to values.
type Parameters map[string]ParamValue

// SortedKeys returns the keys in ascending lexicographic order, the order
// used by the encoder.
func (p Parameters) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores the classified form of raw under key, as the parser would.
func (p Parameters) Set(key, raw string) { p[key] = ClassifyParam(key, raw) }

// ClassifyParam infers the value type of an unescaped parameter value.
// Bracketed values become arrays: all booleans give a bool array, all
// numbers give a float array when any element is a float literal and an int
// array otherwise, and empty brackets give an empty float array. Any other
// bracketed content stays a string. Outside brackets, integer then float
// literals are recognized except under the "shape" key, whose WKT text is
// always a string.
func ClassifyParam(key, val string) ParamValue {
	if strings.HasPrefix(val, "[") && strings.HasSuffix(val, "]") && len(val) >= 2 {
		if arr, ok := classifyArray(val[1 : len(val)-1]); ok {
			return arr
		}
		return StringParam(val)
	}
	if key != ParamShape {
		if i, ok := encodesInt(val); ok {
			return IntParam(i)
		}
		if f, ok := encodesFloat(val); ok {
			return FloatParam(f)
		}
	}
	return StringParam(val)
}

func classifyArray(body string) (ParamValue, bool) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return FloatArrayParam(), true
	}
	bools := make([]bool, 0, len(fields))
	for _, f := range fields {
		if f != "true" && f != "false" {
			bools = nil
			break
		}
		bools = append(bools, f == "true")
	}
	if bools != nil {
		return BoolArrayParam(bools...), true
	}
	ints := make([]int64, 0, len(fields))
	floats := make([]float64, 0, len(fields))
	anyFloat := false
	for _, f := range fields {
		if i, ok := encodesInt(f); ok {
			ints = append(ints, i)
			floats = append(floats, float64(i))
			continue
		}
		if x, ok := encodesFloat(f); ok {
			anyFloat = true
			floats = append(floats, x)
			continue
		}
		return ParamValue{}, false
	}
	if anyFloat {
		return FloatArrayParam(floats...), true
	}
	return IntArrayParam(ints...), true
}

func encodesInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	return i, err == nil
}

// encodesFloat only accepts plain decimal or exponent literals; words such
// as "inf" or "NaN" stay strings.
func encodesFloat(s string) (float64, bool) {
	digits := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E':
		default:
			return 0, false
		}
	}
	if !digits {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func formatFloat(f float64) string {
	format := byte('f')
	if a := math.Abs(f); a >= 1e16 || (a != 0 && a < 1e-4) {
		format = 'g'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func joinArray[T any](vs []T, format func(T) string) string {
	b := &strings.Builder{}
	b.WriteByte('[')
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(format(v))
	}
	b.WriteByte(']')
	return b.String()
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// ---- serialization escaping ----

var (
	escaper   = strings.NewReplacer(",", "&comma;", "=", "&eq;")
	unescaper = strings.NewReplacer("&comma;", ",", "&eq;", "=")
)

// EscapeForSerialization replaces "," and "=" so that a value can be placed
// inside a parameter block.
func EscapeForSerialization(s string) string { return escaper.Replace(s) }

// DecodeForSerialization undoes EscapeForSerialization.
func DecodeForSerialization(s string) string { return unescaper.Replace(s) }
