package wire

import (
	goklab "github.com/reoring/goklab"
)

// GeometryDoc is the JSON view of a geometry printed by the CLI.
type GeometryDoc struct {
	Kind        string         `json:"kind"`
	Granularity string         `json:"granularity,omitempty"`
	Encoded     string         `json:"encoded,omitempty"`
	Dimensions  []DimensionDoc `json:"dimensions,omitempty"`
	Child       *GeometryDoc   `json:"child,omitempty"`
}

// DimensionDoc is the JSON view of one dimension.
type DimensionDoc struct {
	Type           string         `json:"type"`
	Regular        bool           `json:"regular"`
	Generic        bool           `json:"generic"`
	Dimensionality int            `json:"dimensionality"`
	Shape          []int64        `json:"shape,omitempty"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

// NewGeometryDoc builds the view of g. Encoded is only set at the top level.
func NewGeometryDoc(g *goklab.Geometry) *GeometryDoc {
	doc := geometryDoc(g)
	if s, err := g.Encode(); err == nil {
		doc.Encoded = s
	}
	return doc
}

func geometryDoc(g *goklab.Geometry) *GeometryDoc {
	switch {
	case g.IsEmpty():
		return &GeometryDoc{Kind: "empty"}
	case g.IsScalar():
		return &GeometryDoc{Kind: "scalar"}
	}
	doc := &GeometryDoc{Kind: "dimensioned", Granularity: g.Granularity.String()}
	for _, d := range g.Dimensions {
		dd := DimensionDoc{
			Type:           d.Type.String(),
			Regular:        d.Regular,
			Generic:        d.Generic,
			Dimensionality: d.Dimensionality,
			Shape:          d.Shape,
		}
		if len(d.Parameters) > 0 {
			dd.Parameters = make(map[string]any, len(d.Parameters))
			for k, v := range d.Parameters {
				dd.Parameters[k] = v.Any()
			}
		}
		doc.Dimensions = append(doc.Dimensions, dd)
	}
	if g.Child != nil {
		doc.Child = geometryDoc(g.Child)
	}
	return doc
}
