package engine

import (
	"slices"
	"strings"

	goklab "github.com/reoring/goklab"
	"github.com/reoring/goklab/i18n"
)

// Export names what is retrieved through the export endpoint.
type Export int

const (
	ExportStructure Export = iota
	ExportData
	ExportView
	ExportLegend
	ExportReport
	ExportDataflow
	ExportProvenanceFull
	ExportProvenanceSimplified
)

var exportNames = []string{
	"structure", "data", "view", "legend", "report", "dataflow", "provenance_full", "provenance_simplified",
}

// String returns the path segment used by the export endpoint.
func (e Export) String() string {
	if e < 0 || int(e) >= len(exportNames) {
		return "unknown"
	}
	return exportNames[e]
}

// ParseExport maps a name such as "data" or "PROVENANCE_FULL" to an Export.
func ParseExport(s string) (Export, error) {
	for i, n := range exportNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Export(i), nil
		}
	}
	return 0, enumIssue(s)
}

// ExportFormat selects the media type of an export.
type ExportFormat int

const (
	PNGImage ExportFormat = iota
	GeoTIFFRaster
	PDFDocument
	ExcelTable
	CSVTable
	JSONCode
	KDLCode
	KIMCode
	ELKGraphJSON
	ByteStream
)

type formatInfo struct {
	name      string
	mediaType string
	text      bool
	allowed   []Export
}

var formats = []formatInfo{
	{"PNG_IMAGE", "image/png", false, []Export{ExportData, ExportLegend, ExportView}},
	{"GEOTIFF_RASTER", "image/tiff", false, []Export{ExportData}},
	{"PDF_DOCUMENT", "application/pdf", false, []Export{ExportReport}},
	{"EXCEL_TABLE", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", false, []Export{ExportData, ExportLegend}},
	{"CSV_TABLE", "text/csv", true, []Export{ExportData, ExportLegend}},
	{"JSON_CODE", "application/json", true, []Export{ExportStructure, ExportLegend, ExportDataflow, ExportProvenanceFull, ExportProvenanceSimplified}},
	{"KDL_CODE", "text/plain", true, []Export{ExportDataflow}},
	{"KIM_CODE", "text/plain", true, []Export{ExportProvenanceFull, ExportProvenanceSimplified}},
	{"ELK_GRAPH_JSON", "application/json", true, []Export{ExportDataflow, ExportProvenanceFull, ExportProvenanceSimplified}},
	{"BYTESTREAM", "application/octet-stream", false, []Export{ExportData}},
}

func (f ExportFormat) info() formatInfo {
	if f < 0 || int(f) >= len(formats) {
		return formatInfo{name: "UNKNOWN", mediaType: "application/octet-stream"}
	}
	return formats[f]
}

func (f ExportFormat) String() string { return f.info().name }

// MediaType is sent as the Accept header of the export request.
func (f ExportFormat) MediaType() string { return f.info().mediaType }

// IsText reports whether the format can be returned as a string.
func (f ExportFormat) IsText() bool { return f.info().text }

// Allows reports whether target can be exported in this format.
func (f ExportFormat) Allows(target Export) bool { return slices.Contains(f.info().allowed, target) }

// ParseExportFormat maps a name such as "geotiff_raster" to an ExportFormat.
func ParseExportFormat(s string) (ExportFormat, error) {
	for i, fi := range formats {
		if strings.EqualFold(fi.name, strings.TrimSpace(s)) {
			return ExportFormat(i), nil
		}
	}
	return 0, enumIssue(s)
}

func enumIssue(s string) goklab.Issues {
	return goklab.Issues{{
		Path:    "/",
		Code:    goklab.CodeInvalidEnum,
		Message: i18n.T(goklab.CodeInvalidEnum, map[string]string{"value": s}),
		Offset:  -1,
		Params:  map[string]any{"value": s},
	}}
}
