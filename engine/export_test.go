package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goklab "github.com/reoring/goklab"
)

func TestExportFormat_Allows(t *testing.T) {
	assert.True(t, PNGImage.Allows(ExportLegend))
	assert.False(t, PNGImage.Allows(ExportStructure))
	assert.False(t, PNGImage.IsText())
	assert.True(t, JSONCode.IsText())
	assert.True(t, KDLCode.Allows(ExportDataflow))
	assert.False(t, KIMCode.Allows(ExportDataflow))
	assert.Equal(t, "image/tiff", GeoTIFFRaster.MediaType())
	assert.Equal(t, "application/octet-stream", ExportFormat(99).MediaType())
	assert.Equal(t, "UNKNOWN", ExportFormat(-1).String())
}

func TestParseExport(t *testing.T) {
	e, err := ParseExport("PROVENANCE_FULL")
	require.NoError(t, err)
	assert.Equal(t, ExportProvenanceFull, e)
	assert.Equal(t, "provenance_full", e.String())

	f, err := ParseExportFormat(" geotiff_raster ")
	require.NoError(t, err)
	assert.Equal(t, GeoTIFFRaster, f)

	_, err = ParseExportFormat("gif")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalArgument))
	iss, ok := goklab.AsIssues(err)
	require.True(t, ok)
	assert.True(t, iss.HasCode(goklab.CodeInvalidEnum))
	assert.Equal(t, "gif", iss[0].Params["value"])
}

func TestStatusError(t *testing.T) {
	err := error(&StatusError{Method: "GET", Endpoint: "/ping", Code: 403, Status: "403 Forbidden"})
	assert.True(t, errors.Is(err, ErrNotOnline))
	assert.Equal(t, "engine: GET /ping: 403 Forbidden", err.Error())

	err = &StatusError{Method: "GET", Endpoint: "/ping", Code: 500, Status: "500 Internal Server Error", Body: "boom"}
	assert.False(t, errors.Is(err, ErrNotOnline))
	assert.Equal(t, "engine: GET /ping: 500 Internal Server Error: boom", err.Error())
}

func TestArtifactsAndEstimate(t *testing.T) {
	tk := &Ticket{Type: TicketObservationEstimate, Data: map[string]string{
		"artifacts": " a, ,b ", "estimate": "e1", "cost": "3", "currency": "EUR", "feasible": "false",
	}}
	assert.Equal(t, []string{"a", "b"}, artifacts(tk))
	est, err := makeEstimate(tk)
	require.NoError(t, err)
	assert.Equal(t, &Estimate{ID: "e1", Cost: 3, Currency: "EUR", TicketType: TicketObservationEstimate}, est)

	tk.Data["cost"] = "lots"
	_, err = makeEstimate(tk)
	assert.ErrorIs(t, err, ErrRemote)
}
