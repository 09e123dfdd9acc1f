// Package goklab is a client toolkit for the k.LAB modeling engine.
//
// The root package holds the geometry codec: Decode parses the compact
// geometry language used to describe space/time extents, (*Geometry).Encode
// writes the canonical form back, and Builder assembles common grids,
// regions and yearly periods without touching the grammar.
//
// Design policy:
//   - Keep only public APIs in the root package; the engine client lives under
//     engine/, codecs under codec/, and the CLI under cmd/goklab.
//   - Every codec failure is an Issues value (code, path, rune offset).
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	g, err := goklab.Decode("τ1(3){ttype=GRID}S2(520,297){bbox=[1.0 2.0 3.0 4.0]}")
//	s, err := g.Encode()
//
//	g, err := goklab.NewBuilder().
//		Grid(goklab.WithURN(wkt), goklab.WithResolution("1 km")).
//		Years(2010).
//		Build()
package goklab
