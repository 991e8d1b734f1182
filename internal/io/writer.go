package io

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	json "github.com/goccy/go-json"
)

// NewSummaryWriter returns a writer for format sending its output to w.
// A nil mem uses the Go allocator.
func NewSummaryWriter(w io.Writer, format Format, mem memory.Allocator) (SummaryWriter, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	switch format {
	case FormatCSV:
		return &CSVWriter{writer: w, comma: ',', mem: mem}, nil
	case FormatTSV:
		return &CSVWriter{writer: w, comma: '\t', mem: mem}, nil
	case FormatJSON:
		return &JSONWriter{writer: w}, nil
	case FormatJSONL:
		return &JSONWriter{writer: w, lines: true}, nil
	case FormatParquet:
		return &ParquetWriter{writer: w, mem: mem, options: DefaultParquetOptions()}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %v", format)
	}
}

// toRecord builds an all-string Arrow record with one field per header.
func toRecord(headers []string, records [][]string, mem memory.Allocator) (arrow.Record, error) {
	fields := make([]arrow.Field, len(headers))
	for i, h := range headers {
		fields[i] = arrow.Field{Name: h, Type: arrow.BinaryTypes.String}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for r, rec := range records {
		if len(rec) != len(headers) {
			return nil, fmt.Errorf("record %d has %d fields, want %d", r, len(rec), len(headers))
		}
		for i, v := range rec {
			b.Field(i).(*array.StringBuilder).Append(v)
		}
	}
	return b.NewRecord(), nil
}

// CSVWriter writes summaries as delimited text through the Arrow CSV
// encoder.
type CSVWriter struct {
	writer io.Writer
	comma  rune
	mem    memory.Allocator
}

// Write writes the header row and records.
func (w *CSVWriter) Write(headers []string, records [][]string) error {
	rec, err := toRecord(headers, records, w.mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	cw := arrowcsv.NewWriter(w.writer, rec.Schema(),
		arrowcsv.WithComma(w.comma),
		arrowcsv.WithHeader(true),
	)
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("writing CSV summary: %w", err)
	}
	if err := cw.Flush(); err != nil {
		return fmt.Errorf("flushing CSV summary: %w", err)
	}
	return cw.Error()
}

// JSONWriter writes summaries as a JSON array of objects, or one object
// per line. Object keys keep header order.
type JSONWriter struct {
	writer io.Writer
	lines  bool
}

// orderedRecord marshals as an object whose keys follow headers.
type orderedRecord struct {
	headers []string
	values  []string
}

func (o orderedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range o.headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Write writes the records keyed by headers.
func (w *JSONWriter) Write(headers []string, records [][]string) error {
	out := make([]orderedRecord, len(records))
	for i, rec := range records {
		if len(rec) != len(headers) {
			return fmt.Errorf("record %d has %d fields, want %d", i, len(rec), len(headers))
		}
		out[i] = orderedRecord{headers: headers, values: rec}
	}

	if !w.lines {
		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshaling JSON array: %w", err)
		}
		_, err = w.writer.Write(append(data, '\n'))
		return err
	}

	for _, rec := range out {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling JSON record: %w", err)
		}
		if _, err := w.writer.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// ParquetOptions contains configuration options for Parquet output
type ParquetOptions struct {
	// Compression codec: snappy, gzip, lz4, zstd or uncompressed
	Compression string
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{Compression: "snappy"}
}

// ParquetWriter writes summaries as a Parquet file with one string column
// per header.
type ParquetWriter struct {
	writer  io.Writer
	mem     memory.Allocator
	options ParquetOptions
}

// Write writes the records as a single row group.
func (w *ParquetWriter) Write(headers []string, records [][]string) error {
	rec, err := toRecord(headers, records, w.mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	var compression compress.Compression
	switch w.options.Compression {
	case "gzip":
		compression = compress.Codecs.Gzip
	case "lz4":
		compression = compress.Codecs.Lz4Raw
	case "zstd":
		compression = compress.Codecs.Zstd
	case "uncompressed":
		compression = compress.Codecs.Uncompressed
	default:
		compression = compress.Codecs.Snappy
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(compression))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(w.mem))

	fw, err := pqarrow.NewFileWriter(rec.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("writing parquet summary: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}
