package goklab

import (
	"strconv"
	"strings"
	"unicode"
)

// Dimension identifiers. The Greek capitals are distinct code points from
// the Latin letters they resemble.
const (
	spaceRegular        = 'S'
	spaceIrregular      = 's'
	spaceGenericRegular = 'Σ' // Σ
	spaceGeneric        = 'σ' // σ
	timeRegular         = 'T'
	timeIrregular       = 't'
	timeGenericRegular  = 'Τ' // Τ (Greek capital tau)
	timeGeneric         = 'τ' // τ
	infinity            = '∞' // ∞
)

// Decode parses a geometry specification. The empty string and "X" give the
// empty geometry and "*" gives the scalar geometry. Any malformed input
// yields Issues and no geometry.
func Decode(spec string) (*Geometry, error) {
	switch spec {
	case "", "X":
		return Empty(), nil
	case "*":
		return Scalar(), nil
	}
	p := &parser{src: []rune(spec)}
	return p.geometry(0, "/")
}

// MustDecode is like Decode but panics on error. Intended for constants.
func MustDecode(spec string) *Geometry {
	g, err := Decode(spec)
	if err != nil {
		panic(err)
	}
	return g
}

type parser struct {
	src []rune
}

// geometry reads the geometry starting at the i-th rune. A top-level ","
// hands the remainder to a child geometry and ends this level.
func (p *parser) geometry(start int, path string) (*Geometry, error) {
	ret := &Geometry{Kind: KindDimensioned}
scan:
	for i := start; i < len(p.src); i++ {
		c := p.src[i]
		switch {
		case c == '#':
			ret.Granularity = Multiple
		case c == ',':
			child, err := p.geometry(i+1, childPath(path))
			if err != nil {
				return nil, err
			}
			ret.Child = child
			break scan
		case unicode.IsLetter(c):
			dim, last, err := p.dimension(i, path)
			if err != nil {
				return nil, err
			}
			ret.Dimensions = append(ret.Dimensions, dim)
			i = last
		}
	}
	if len(ret.Dimensions) == 0 {
		return nil, issueAt(path, start, CodeNoDimensions, string(p.src[start:]))
	}
	return ret, nil
}

// dimension reads one dimension token at i and returns the index of its
// last rune.
func (p *parser) dimension(i int, path string) (*Dimension, int, error) {
	c := p.src[i]
	dim := NewDimension(Space, 0)
	switch c {
	case spaceRegular, spaceIrregular, spaceGenericRegular, spaceGeneric:
		dim.Type = Space
		dim.Generic = c == spaceGenericRegular || c == spaceGeneric
		dim.Regular = c == spaceRegular || c == spaceGenericRegular
	case timeRegular, timeIrregular, timeGenericRegular, timeGeneric:
		dim.Type = Time
		dim.Generic = c == timeGenericRegular || c == timeGeneric
		dim.Regular = c == timeRegular || c == timeGenericRegular
	default:
		return nil, 0, issueAt(path, i, CodeIllegalDimension, string(c))
	}

	i++
	if i >= len(p.src) {
		return nil, 0, issueAt(path, i, CodeIllegalDimensionality, "")
	}
	switch d := p.src[i]; {
	case d == '.':
		dim.Dimensionality = NonDimensional
	case isDigit(d):
		if i+1 < len(p.src) && isDigit(p.src[i+1]) {
			return nil, 0, issueAt(path, i, CodeUnsupportedDimensionality, string(p.src[i:i+2]))
		}
		dim.Dimensionality = int(d - '0')
	default:
		return nil, 0, issueAt(path, i, CodeIllegalDimensionality, string(d))
	}

	if p.at(i+1) == '(' {
		end := p.indexFrom(i+2, ')')
		if end < 0 {
			return nil, 0, issueAt(path, i+1, CodeUnterminated, "(")
		}
		shape, err := readShape(string(p.src[i+2:end]), path, i+2)
		if err != nil {
			return nil, 0, err
		}
		// the shape block takes precedence over the digit read above
		dim.Dimensionality = len(shape)
		dim.Shape = shape
		i = end
	}

	if p.at(i+1) == '{' {
		end := p.indexFrom(i+2, '}')
		if end < 0 {
			return nil, 0, issueAt(path, i+1, CodeUnterminated, "{")
		}
		if body := string(p.src[i+2 : end]); len(body) > 0 {
			if err := readParameters(body, dim.Parameters, path, i+2); err != nil {
				return nil, 0, err
			}
		}
		i = end
	}
	return dim, i, nil
}

func (p *parser) at(i int) rune {
	if i < 0 || i >= len(p.src) {
		return 0
	}
	return p.src[i]
}

func (p *parser) indexFrom(i int, r rune) int {
	for ; i < len(p.src); i++ {
		if p.src[i] == r {
			return i
		}
	}
	return -1
}

func readShape(spec, path string, offset int) ([]int64, error) {
	entries := strings.Split(strings.TrimSpace(spec), ",")
	ret := make([]int64, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		switch e {
		case "":
			ret = append(ret, NonDimensional)
		case string(infinity):
			ret = append(ret, InfiniteSize)
		default:
			n, err := strconv.ParseInt(e, 10, 64)
			if err != nil {
				iss := issueAt(path, offset, CodeIllegalShape, e)
				iss[0].Cause = err
				return nil, iss
			}
			ret = append(ret, n)
		}
	}
	return ret, nil
}

func readParameters(kvs string, dst Parameters, path string, offset int) error {
	for _, kvp := range strings.Split(strings.TrimSpace(kvs), ",") {
		kk := strings.Split(strings.TrimSpace(kvp), "=")
		if len(kk) != 2 {
			return issueAt(path, offset, CodeIllegalParameter, kvp)
		}
		key := strings.TrimSpace(kk[0])
		val := DecodeForSerialization(strings.TrimSpace(kk[1]))
		dst[key] = ClassifyParam(key, val)
	}
	return nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func childPath(path string) string {
	if path == "/" {
		return "/child"
	}
	return path + "/child"
}
