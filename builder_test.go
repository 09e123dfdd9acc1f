package goklab_test

import (
	"errors"
	"slices"
	"testing"

	goklab "github.com/reoring/goklab"
)

const elevationWKT = "EPSG:4326 POLYGON((33.796 -7.086, 35.946 -7.086, 35.946 -9.41, 33.796 -9.41, 33.796 -7.086))"

func TestBuilder_YearsSingle(t *testing.T) {
	g, err := goklab.NewBuilder().Years(2010).Build()
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	out, err := g.Encode()
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	const want = "t1(1){tend=1293840000000,tstart=1262304000000,ttype=PHYSICAL}"
	if out != want {
		t.Fatalf("unexpected encoding:\n got %q\nwant %q", out, want)
	}
}

func TestBuilder_YearsRange(t *testing.T) {
	g := goklab.NewBuilder().Years(2010, 2012).MustBuild()
	d := g.Dimension(goklab.Time)
	if d == nil || !d.Regular || d.Dimensionality != 1 || !slices.Equal(d.Shape, []int64{2}) {
		t.Fatalf("unexpected time dimension: %+v", d)
	}
	if unit, _ := d.Parameters[goklab.ParamTimeUnit].Str(); unit != "YEAR" {
		t.Fatalf("unexpected unit: %q", unit)
	}
	const want = "T1(2){tend=1325376000000,tscope=1,tstart=1262304000000,ttype=GRID,tunit=YEAR}"
	if out := g.String(); out != want {
		t.Fatalf("unexpected encoding:\n got %q\nwant %q", out, want)
	}
}

func TestBuilder_YearsInvalid(t *testing.T) {
	for _, years := range [][]int{nil, {2010, 2011, 2012}, {2012, 2010}, {2010, 2010}} {
		_, err := goklab.NewBuilder().Years(years...).Build()
		iss, ok := goklab.AsIssues(err)
		if !ok || !iss.HasCode(goklab.CodeInvalidYears) {
			t.Fatalf("years %v: expected invalid_years, got %v", years, err)
		}
	}
}

func TestBuilder_GridShapes(t *testing.T) {
	cases := []struct {
		name string
		opts []goklab.GridOption
		want string
	}{
		{
			"bbox",
			[]goklab.GridOption{goklab.WithBBox(1, 2, 3, 4)},
			"S2{bbox=[1.0 2.0 3.0 4.0],proj=EPSG:4326}",
		},
		{
			"bbox and resolution",
			[]goklab.GridOption{goklab.WithBBox(1, 2, 3, 4), goklab.WithResolution("1 km"), goklab.WithProjection("EPSG:3857")},
			"S2{bbox=[1.0 2.0 3.0 4.0],proj=EPSG:3857,sgrid=1 km}",
		},
		{
			"wkt and resolution",
			[]goklab.GridOption{goklab.WithURN("POINT(1 2)"), goklab.WithResolution("100 m")},
			"S2{sgrid=100 m,shape=POINT(1 2)}",
		},
		{
			"urn and resolution",
			[]goklab.GridOption{goklab.WithURN("klab:area:tanzania"), goklab.WithResolution("1 km")},
			"S2{sgrid=1 km,urn=klab:area:tanzania}",
		},
	}
	for _, tc := range cases {
		g, err := goklab.NewBuilder().Grid(tc.opts...).Build()
		if err != nil {
			t.Fatalf("%s: build err: %v", tc.name, err)
		}
		if out := g.String(); out != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, out, tc.want)
		}
		if err := goklab.Validate(g); err != nil {
			t.Fatalf("%s: does not round trip: %v", tc.name, err)
		}
	}
}

func TestBuilder_GridInsufficient(t *testing.T) {
	for _, opts := range [][]goklab.GridOption{
		nil,
		{goklab.WithURN("klab:area")},
		{goklab.WithResolution("1 km")},
	} {
		_, err := goklab.NewBuilder().Grid(opts...).Years(2010).Build()
		if !errors.Is(err, goklab.ErrIllegalArgument) {
			t.Fatalf("expected illegal argument, got %v", err)
		}
		iss, _ := goklab.AsIssues(err)
		if !iss.HasCode(goklab.CodeInsufficientGrid) {
			t.Fatalf("expected insufficient_grid, got %v", err)
		}
	}
}

func TestBuilder_Region(t *testing.T) {
	g := goklab.NewBuilder().Region(elevationWKT).MustBuild()
	d := g.Dimensions[0]
	if d.Regular || d.Size() != 1 || d.Dimensionality != 2 {
		t.Fatalf("unexpected region: %+v", d)
	}
	if s, _ := d.Parameters[goklab.ParamShape].Str(); s != elevationWKT {
		t.Fatalf("shape not stored verbatim: %q", s)
	}
	if err := goklab.Validate(g); err != nil {
		t.Fatalf("region does not round trip: %v", err)
	}

	g = goklab.NewBuilder().Region("klab:area").MustBuild()
	if out := g.String(); out != "s2(1,1){urn=klab:area}" {
		t.Fatalf("unexpected encoding: %q", out)
	}
}

func TestBuilder_ElevationRequest(t *testing.T) {
	g, err := goklab.NewBuilder().
		Grid(goklab.WithURN(elevationWKT), goklab.WithResolution("1 km")).
		Years(2010).
		Build()
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	const want = "t1(1){tend=1293840000000,tstart=1262304000000,ttype=PHYSICAL}" +
		"S2{sgrid=1 km,shape=EPSG:4326 POLYGON((33.796 -7.086&comma; 35.946 -7.086&comma; " +
		"35.946 -9.41&comma; 33.796 -9.41&comma; 33.796 -7.086))}"
	if out := g.String(); out != want {
		t.Fatalf("unexpected encoding:\n got %q\nwant %q", out, want)
	}
}

func TestBuilder_EmptyAndMultiple(t *testing.T) {
	g := goklab.NewBuilder().Multiple().MustBuild()
	if !g.IsEmpty() {
		t.Fatalf("expected empty geometry without parts")
	}
	g = goklab.NewBuilder().Region("klab:a").Multiple().MustBuild()
	if out := g.String(); out != "#s2(1,1){urn=klab:a}" {
		t.Fatalf("unexpected encoding: %q", out)
	}
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	_, err := goklab.NewBuilder().Grid().Years().Build()
	iss, _ := goklab.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != goklab.CodeInsufficientGrid {
		t.Fatalf("expected the grid error, got %v", err)
	}
}

func TestStartOfYear(t *testing.T) {
	if got := goklab.StartOfYear(1970); got != 0 {
		t.Fatalf("epoch year: %d", got)
	}
	if got := goklab.StartOfYear(2010); got != 1262304000000 {
		t.Fatalf("2010: %d", got)
	}
}

func TestIsWKT(t *testing.T) {
	cases := map[string]bool{
		"POINT(1 2)":                    true,
		"EPSG:4326 POLYGON((0 0, 1 1))": true,
		"multilinestring((0 0, 1 1))":   true,
		"POLYGON((0 0, 1 1)":            false,
		"klab:area:POINT":               false,
		"":                              false,
	}
	for in, want := range cases {
		if got := goklab.IsWKT(in); got != want {
			t.Fatalf("IsWKT(%q) = %v", in, got)
		}
	}
}
