package io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// CSVReader reads delimited records one at a time. Rows may be ragged;
// callers treat missing trailing fields as empty.
type CSVReader struct {
	r       *csv.Reader
	options CSVOptions

	// pending holds the first row when it was read to size synthetic
	// headers and has not been handed out yet.
	pending       []string
	pendingOffset int64
	headersRead   bool
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, options CSVOptions) *CSVReader {
	r := csv.NewReader(reader)
	r.Comma = options.Delimiter
	r.Comment = options.Comment
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	return &CSVReader{r: r, options: options}
}

// ReadHeaders returns the column names. Without a header row the names
// are the 1-based column positions of the first record. An empty input
// has no columns.
func (r *CSVReader) ReadHeaders() ([]string, error) {
	if r.headersRead {
		return nil, errors.New("headers already read")
	}
	r.headersRead = true

	offset := r.r.InputOffset()
	first, err := r.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading headers: %w", err)
	}

	if r.options.Header {
		return append([]string(nil), first...), nil
	}

	r.pending = append([]string(nil), first...)
	r.pendingOffset = offset
	headers := make([]string, len(first))
	for i := range headers {
		headers[i] = strconv.Itoa(i + 1)
	}
	return headers, nil
}

// Read returns the next record, or io.EOF. The returned slice is reused
// by the next call.
func (r *CSVReader) Read() ([]string, error) {
	if r.pending != nil {
		rec := r.pending
		r.pending = nil
		return rec, nil
	}
	rec, err := r.r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return rec, err
}

// Offset returns the byte offset where the next unread record starts.
func (r *CSVReader) Offset() int64 {
	if r.pending != nil {
		return r.pendingOffset
	}
	return r.r.InputOffset()
}
