package goklab_test

import (
	"testing"

	goklab "github.com/reoring/goklab"
)

func TestParseEnums_CaseInsensitive(t *testing.T) {
	if v, err := goklab.ParseDimensionType("space"); err != nil || v != goklab.Space {
		t.Fatalf("dimension type: %v %v", v, err)
	}
	if v, err := goklab.ParseGranularity(" Multiple "); err != nil || v != goklab.Multiple {
		t.Fatalf("granularity: %v %v", v, err)
	}
	if v, err := goklab.ParseShapeType("MultiPolygon"); err != nil || v != goklab.ShapeMultiPolygon {
		t.Fatalf("shape type: %v %v", v, err)
	}
	if v, err := goklab.ParseTimeResolutionType("year"); err != nil || v != goklab.Year {
		t.Fatalf("time resolution: %v %v", v, err)
	}
	if v, err := goklab.ParseObservationType("state"); err != nil || v != goklab.ObservationState {
		t.Fatalf("observation type: %v %v", v, err)
	}
	if v, err := goklab.ParseGeometryType("raster"); err != nil || v != goklab.GeometryRaster {
		t.Fatalf("geometry type: %v %v", v, err)
	}
	if v, err := goklab.ParseValueType("category"); err != nil || v != goklab.ValueCategory {
		t.Fatalf("value type: %v %v", v, err)
	}
}

func TestParseEnums_UnknownIsTypedError(t *testing.T) {
	_, err := goklab.ParseShapeType("HEXAGON")
	iss, ok := goklab.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != goklab.CodeInvalidEnum {
		t.Fatalf("expected invalid_enum, got %v", err)
	}
	if iss[0].Params["value"] != "HEXAGON" {
		t.Fatalf("expected the offending value in params, got %v", iss[0].Params)
	}
}

func TestEnums_Text(t *testing.T) {
	b, err := goklab.Time.MarshalText()
	if err != nil || string(b) != "TIME" {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var gt goklab.GeometryType
	if err := gt.UnmarshalText([]byte("timeseries")); err != nil || gt != goklab.GeometryTimeseries {
		t.Fatalf("unmarshal: %v %v", gt, err)
	}
	if err := gt.UnmarshalText([]byte("nope")); err == nil {
		t.Fatalf("expected error for unknown name")
	}
	if gt != goklab.GeometryTimeseries {
		t.Fatalf("failed unmarshal must not modify the receiver")
	}
	if s := goklab.DimensionType(42).String(); s != "UNKNOWN" {
		t.Fatalf("out of range: %q", s)
	}
}
