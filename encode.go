package goklab

import (
	"slices"
	"strconv"
	"strings"
)

// Encode returns the canonical text of g. See (*Geometry).Encode.
func Encode(g *Geometry) (string, error) { return g.Encode() }

// Encode renders g in canonical form: TIME dimensions precede the others
// (stable otherwise), parameter keys are sorted, and shapes are written only
// when every axis is known. Two equal geometries always encode to the same
// string, and Decode(g.Encode()) is equal to g.
func (g *Geometry) Encode() (string, error) {
	b := &strings.Builder{}
	if err := g.encodeTo(b, "/"); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (g *Geometry) encodeTo(b *strings.Builder, path string) error {
	switch {
	case g.IsEmpty():
		b.WriteByte('X')
		return nil
	case g.IsScalar():
		b.WriteByte('*')
		return nil
	}
	if len(g.Dimensions) == 0 {
		return issueAt(path, -1, CodeNoDimensions, "")
	}

	if g.Granularity == Multiple {
		b.WriteByte('#')
	}
	dims := slices.Clone(g.Dimensions)
	slices.SortStableFunc(dims, compareDimensions)
	for _, d := range dims {
		if err := d.encodeTo(b, path); err != nil {
			return err
		}
	}

	if g.Child != nil {
		// only a dimensioned geometry can follow the separator
		if g.Child.Kind != KindDimensioned {
			return issueAt(childPath(path), -1, CodeUnencodable, g.Child.String())
		}
		b.WriteByte(',')
		return g.Child.encodeTo(b, childPath(path))
	}
	return nil
}

// Canonical returns a copy of g with dimensions in encoding order at every
// level of the child chain.
func (g *Geometry) Canonical() *Geometry {
	ret := g.Copy()
	for c := ret; c != nil; c = c.Child {
		slices.SortStableFunc(c.Dimensions, compareDimensions)
	}
	return ret
}

func compareDimensions(a, b *Dimension) int {
	switch {
	case a.Type == Time && b.Type != Time:
		return -1
	case b.Type == Time && a.Type != Time:
		return 1
	}
	return 0
}

// Code returns the identifier rune for the dimension's type, regularity and
// genericity.
func (d *Dimension) Code() (rune, error) {
	switch d.Type {
	case Space:
		return pick(d.Regular, d.Generic, spaceRegular, spaceIrregular, spaceGenericRegular, spaceGeneric), nil
	case Time:
		return pick(d.Regular, d.Generic, timeRegular, timeIrregular, timeGenericRegular, timeGeneric), nil
	}
	return 0, issueAt("/", -1, CodeUnencodable, d.Type.String())
}

func pick(regular, generic bool, r, i, gr, gi rune) rune {
	switch {
	case generic && regular:
		return gr
	case generic:
		return gi
	case regular:
		return r
	}
	return i
}

func (d *Dimension) encodeTo(b *strings.Builder, path string) error {
	code, err := d.Code()
	if err != nil {
		iss := err.(Issues)
		iss[0].Path = path
		return iss
	}
	b.WriteRune(code)

	switch {
	case d.Dimensionality < 0:
		b.WriteByte('.')
	case d.Dimensionality > 9:
		return issueAt(path, -1, CodeUnsupportedDimensionality, strconv.Itoa(d.Dimensionality))
	default:
		b.WriteString(strconv.Itoa(d.Dimensionality))
	}

	if len(d.Shape) > 0 && !isUndefined(d.Shape) {
		if len(d.Shape) != d.Dimensionality {
			return issueAt(path, -1, CodeIllegalShape, formatShape(d.Shape))
		}
		b.WriteString(formatShape(d.Shape))
	}

	if len(d.Parameters) > 0 {
		b.WriteByte('{')
		for i, k := range d.Parameters.SortedKeys() {
			if k == "" || strings.ContainsAny(k, ",={}()") {
				return issueAt(path, -1, CodeIllegalParameter, k)
			}
			v := d.Parameters[k].String()
			if strings.ContainsRune(v, '}') {
				return issueAt(path, -1, CodeIllegalParameter, k+"="+v)
			}
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(EscapeForSerialization(v))
		}
		b.WriteByte('}')
	}
	return nil
}

func formatShape(shape []int64) string {
	b := &strings.Builder{}
	b.WriteByte('(')
	for i, l := range shape {
		if i > 0 {
			b.WriteByte(',')
		}
		if l == InfiniteSize {
			b.WriteRune(infinity)
		} else {
			b.WriteString(strconv.FormatInt(l, 10))
		}
	}
	b.WriteByte(')')
	return b.String()
}
