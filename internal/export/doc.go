// Package export writes computed views to files: CSV and JSON for data, SVG
// for series and vector fields, PNG for series.
//
// [File] picks the writer from the path's extension.
package export
