package wire

import (
	"bytes"
	"strings"
	"testing"

	goklab "github.com/reoring/goklab"
)

func TestUnmarshal_KeepsNumbers(t *testing.T) {
	var v map[string]any
	if err := Unmarshal([]byte(`{"tstart":1262304000000}`), &v); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	n, ok := v["tstart"].(Number)
	if !ok || n.String() != "1262304000000" {
		t.Fatalf("expected json number, got %T %v", v["tstart"], v["tstart"])
	}
}

func TestGeometryDoc(t *testing.T) {
	g := goklab.MustDecode("S2(2,3){urn=a},t1")
	var buf bytes.Buffer
	if err := Encode(&buf, NewGeometryDoc(g)); err != nil {
		t.Fatalf("encode err: %v", err)
	}
	var doc GeometryDoc
	if err := Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if doc.Kind != "dimensioned" || doc.Encoded != "S2(2,3){urn=a},t1" {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if len(doc.Dimensions) != 1 || doc.Dimensions[0].Type != "SPACE" || doc.Dimensions[0].Parameters["urn"] != "a" {
		t.Fatalf("unexpected dimensions: %+v", doc.Dimensions)
	}
	if doc.Child == nil || doc.Child.Dimensions[0].Type != "TIME" || doc.Child.Encoded != "" {
		t.Fatalf("unexpected child: %+v", doc.Child)
	}
}

func TestGeometryDoc_Special(t *testing.T) {
	b, err := Marshal(NewGeometryDoc(goklab.Scalar()))
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if !strings.Contains(string(b), `"kind":"scalar"`) || !strings.Contains(string(b), `"encoded":"*"`) {
		t.Fatalf("unexpected json: %s", b)
	}
}
