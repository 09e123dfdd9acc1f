package goklab

import "strings"

// Granularity distinguishes a single geometry from a batch ("#" prefix).
type Granularity int

const (
	Single   Granularity = iota // One geometry instance.
	Multiple                    // A batch of instances.
)

var granularityNames = []string{"SINGLE", "MULTIPLE"}

func (g Granularity) String() string { return enumName(granularityNames, int(g)) }

// ParseGranularity maps a wire name to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	i, err := parseEnum(granularityNames, s)
	return Granularity(i), err
}

func (g Granularity) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Granularity) UnmarshalText(b []byte) error {
	v, err := ParseGranularity(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// DimensionType is the kind of extent a Dimension describes.
type DimensionType int

const (
	Numerosity DimensionType = iota // Reserved; never produced by the grammar.
	Time
	Space
)

var dimensionTypeNames = []string{"NUMEROSITY", "TIME", "SPACE"}

func (t DimensionType) String() string { return enumName(dimensionTypeNames, int(t)) }

// ParseDimensionType maps a wire name to a DimensionType.
func ParseDimensionType(s string) (DimensionType, error) {
	i, err := parseEnum(dimensionTypeNames, s)
	return DimensionType(i), err
}

func (t DimensionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *DimensionType) UnmarshalText(b []byte) error {
	v, err := ParseDimensionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ShapeType is the kind of vector shape an observation reports.
type ShapeType int

const (
	ShapeEmpty ShapeType = iota
	ShapePoint
	ShapeLineString
	ShapePolygon
	ShapeMultiPoint
	ShapeMultiLineString
	ShapeMultiPolygon
)

var shapeTypeNames = []string{
	"EMPTY", "POINT", "LINESTRING", "POLYGON", "MULTIPOINT", "MULTILINESTRING", "MULTIPOLYGON",
}

func (t ShapeType) String() string { return enumName(shapeTypeNames, int(t)) }

// ParseShapeType maps a wire name to a ShapeType.
func ParseShapeType(s string) (ShapeType, error) {
	i, err := parseEnum(shapeTypeNames, s)
	return ShapeType(i), err
}

func (t ShapeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ShapeType) UnmarshalText(b []byte) error {
	v, err := ParseShapeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ValueType is the type of values an observation contains. All non-quality
// observations have value type VOID.
type ValueType int

const (
	ValueVoid ValueType = iota
	ValueNumber
	ValueBoolean
	ValueCategory
)

var valueTypeNames = []string{"VOID", "NUMBER", "BOOLEAN", "CATEGORY"}

func (t ValueType) String() string { return enumName(valueTypeNames, int(t)) }

// ParseValueType maps a wire name to a ValueType.
func ParseValueType(s string) (ValueType, error) {
	i, err := parseEnum(valueTypeNames, s)
	return ValueType(i), err
}

func (t ValueType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ValueType) UnmarshalText(b []byte) error {
	v, err := ParseValueType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// GeometryType is the natural data representation of an observation.
type GeometryType int

const (
	GeometryRaster      GeometryType = iota // Grid raster map.
	GeometryShape                           // A single shape.
	GeometryScalar                          // No temporal or spatial representation.
	GeometryTimeseries                      // Distributed in time.
	GeometryNetwork                         // Relationships connecting subjects.
	GeometryProportions                     // Derived products.
	GeometryColormap                        // Colormap instead of the image.
	GeometryTable                           // Values in tabular form.
	GeometryRaw                             // Raw export data.
	GeometryGroup                           // Folder of observations ("#" geometry).
)

var geometryTypeNames = []string{
	"RASTER", "SHAPE", "SCALAR", "TIMESERIES", "NETWORK", "PROPORTIONS", "COLORMAP", "TABLE", "RAW", "GROUP",
}

func (t GeometryType) String() string { return enumName(geometryTypeNames, int(t)) }

// ParseGeometryType maps a wire name to a GeometryType.
func ParseGeometryType(s string) (GeometryType, error) {
	i, err := parseEnum(geometryTypeNames, s)
	return GeometryType(i), err
}

func (t GeometryType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *GeometryType) UnmarshalText(b []byte) error {
	v, err := ParseGeometryType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ObservationType classifies engine observations.
type ObservationType int

const (
	ObservationProcess ObservationType = iota
	ObservationState
	ObservationSubject
	ObservationConfiguration
	ObservationEvent
	ObservationRelationship
	ObservationGroup
	ObservationView
)

var observationTypeNames = []string{
	"PROCESS", "STATE", "SUBJECT", "CONFIGURATION", "EVENT", "RELATIONSHIP", "GROUP", "VIEW",
}

func (t ObservationType) String() string { return enumName(observationTypeNames, int(t)) }

// ParseObservationType maps a wire name to an ObservationType.
func ParseObservationType(s string) (ObservationType, error) {
	i, err := parseEnum(observationTypeNames, s)
	return ObservationType(i), err
}

func (t ObservationType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ObservationType) UnmarshalText(b []byte) error {
	v, err := ParseObservationType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TimeResolutionType is the unit of a temporal resolution.
type TimeResolutionType int

const (
	Millennium TimeResolutionType = iota
	Century
	Decade
	Year
	Month
	Week
	Day
	Hour
	Minute
	Second
	Millisecond
)

var timeResolutionNames = []string{
	"MILLENNIUM", "CENTURY", "DECADE", "YEAR", "MONTH", "WEEK", "DAY", "HOUR", "MINUTE", "SECOND", "MILLISECOND",
}

func (t TimeResolutionType) String() string { return enumName(timeResolutionNames, int(t)) }

// ParseTimeResolutionType maps a wire name to a TimeResolutionType.
func ParseTimeResolutionType(s string) (TimeResolutionType, error) {
	i, err := parseEnum(timeResolutionNames, s)
	return TimeResolutionType(i), err
}

func (t TimeResolutionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeResolutionType) UnmarshalText(b []byte) error {
	v, err := ParseTimeResolutionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ---- helpers ----

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "UNKNOWN"
	}
	return names[i]
}

// parseEnum is the shared case-insensitive lookup. It never panics: an
// unknown value yields an invalid_enum issue carrying the value.
func parseEnum(names []string, s string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return i, nil
		}
	}
	return 0, singleIssue(CodeInvalidEnum, map[string]any{"value": s})
}
