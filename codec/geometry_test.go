package codec

import (
	"context"
	"errors"
	"testing"

	goklab "github.com/reoring/goklab"
)

func TestGeometry_Codec_Basic(t *testing.T) {
	c := Geometry()
	ctx := context.Background()

	in := "τ1(3){ttype=GRID}Σ2(520,297){bbox=[1.0 2.0 3.0 4.0]}"
	got, err := c.Decode(ctx, in)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if got.Dimension(goklab.Space) == nil || got.Dimension(goklab.Time) == nil {
		t.Fatalf("expected space and time, got %v", got)
	}

	out, err := c.Encode(ctx, got)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: %s != %s", out, in)
	}
}

func TestGeometry_Codec_Canonicalizes(t *testing.T) {
	c := Geometry()
	ctx := context.Background()

	g, err := c.Decode(ctx, "S2{urn=a,proj=b} t1")
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	out, err := c.Encode(ctx, g)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != "t1S2{proj=b,urn=a}" {
		t.Fatalf("unexpected canonical form: %q", out)
	}
}

func TestGeometry_Codec_RejectsLossyEncode(t *testing.T) {
	d := goklab.NewDimension(goklab.Space, 2)
	d.Parameters[goklab.ParamURN] = goklab.StringParam("1.5")
	_, err := Geometry().Encode(context.Background(), goklab.NewGeometry(d))
	if !errors.Is(err, goklab.ErrIllegalArgument) {
		t.Fatalf("expected an issue, got %v", err)
	}
}

func TestGeometry_Codec_DecodeError(t *testing.T) {
	_, err := Geometry().Decode(context.Background(), "S2{a}")
	iss, ok := goklab.AsIssues(err)
	if !ok || iss[0].Code != goklab.CodeIllegalParameter {
		t.Fatalf("expected illegal_parameter, got %v", err)
	}
}
