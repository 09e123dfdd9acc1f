package goklab

import "context"

// Codec performs bidirectional transformation between the wire
// representation A and the domain representation B. Encode re-validates its
// own output so that only decodable wire values are ever produced.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error) // A -> B.
	Encode(ctx context.Context, b B) (A, error) // B -> A, then A is checked by decoding it again.
}

// Validate reports whether g can be encoded and whether its encoding decodes
// back to a geometry equal to g.Canonical(). A string parameter that reads
// as a number, for example, does not survive the trip.
func Validate(g *Geometry) error {
	if g == nil {
		g = Empty()
	}
	s, err := g.Encode()
	if err != nil {
		return err
	}
	back, err := Decode(s)
	if err != nil {
		return err
	}
	if !back.Equal(g.Canonical()) {
		return singleIssue(CodeUnencodable, map[string]any{"value": s})
	}
	return nil
}
