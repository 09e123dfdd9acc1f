package codec

import (
	"context"

	goklab "github.com/reoring/goklab"
)

// Geometry returns a Codec that converts between geometry specifications and
// *goklab.Geometry. Encode only succeeds when the emitted text decodes back
// to the canonical form of its input.
func Geometry() goklab.Codec[string, *goklab.Geometry] {
	return geometryCodec{}
}

type geometryCodec struct{}

func (geometryCodec) Decode(ctx context.Context, a string) (*goklab.Geometry, error) {
	return goklab.Decode(a)
}

func (geometryCodec) Encode(ctx context.Context, b *goklab.Geometry) (string, error) {
	// wire(string) is re-parsed and compared against the canonical domain value
	if err := goklab.Validate(b); err != nil {
		return "", err
	}
	return b.Encode()
}
