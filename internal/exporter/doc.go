// Package exporter writes report artifacts: normalized tables and computed
// metric series as CSV, assembled reports as JSON.
//
// CSVWriter is the core writer, with UTF-8 BOM output for Excel
// compatibility and a streaming variant for large tables. The formatting
// helpers are the single place where values get rounded; everything
// upstream stays in full float64 precision.
package exporter
