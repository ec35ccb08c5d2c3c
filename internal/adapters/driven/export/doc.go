// Package export renders deduplicated exposure records to report
// files. The CSV writer targets spreadsheet review; the HTML writer
// produces a styled, printable summary.
package export
