// Package io reads delimited input and writes statistic summaries.
//
// Key components:
//   - Open/OpenAt for plain and compressed input files
//   - CSVReader for delimited records with optional headers
//   - Selection for picking columns by name, index or range
//   - SummaryWriter implementations for CSV, TSV, JSON, JSONL and Parquet
//
// Memory management: the Arrow-backed writers allocate from the allocator
// passed to NewSummaryWriter and release everything before returning.
package io

import (
	"fmt"
	"strings"
)

// CSVOptions contains configuration options for CSV input
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Comment:   0,
		Header:    true,
	}
}

// Format is a summary output format.
type Format int

const (
	FormatCSV Format = iota
	FormatTSV
	FormatJSON
	FormatJSONL
	FormatParquet
)

var formatNames = map[Format]string{
	FormatCSV:     "csv",
	FormatTSV:     "tsv",
	FormatJSON:    "json",
	FormatJSONL:   "jsonl",
	FormatParquet: "parquet",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name such as "jsonl".
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unsupported output format %q (want csv, tsv, json, jsonl or parquet)", name)
}

// SummaryWriter writes one header row and any number of records of the
// same width.
type SummaryWriter interface {
	Write(headers []string, records [][]string) error
}
