// Package index builds and loads random-access row indexes for delimited
// files. An index lists the byte offset of every data record so a scan can
// split a file into chunks and start reading each one directly.
package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	tserrors "github.com/paveg/tabstat/internal/errors"
	tsio "github.com/paveg/tabstat/internal/io"
)

// Extension is appended to the indexed file's path.
const Extension = ".idx"

var magic = [8]byte{'T', 'A', 'B', 'S', 'T', 'I', 'X', '1'}

const (
	flagHeader = 1 << iota
)

// Index holds the byte offset of each data record.
type Index struct {
	offsets   []int64
	delimiter rune
	header    bool
}

// PathFor returns where the index of path is stored.
func PathFor(path string) string { return path + Extension }

// Build reads the file at path and records where each data record starts.
// Compressed inputs cannot be indexed.
func Build(path string, opts tsio.CSVOptions) (*Index, error) {
	if tsio.DetectCompression(path) != tsio.None {
		return nil, tserrors.ErrCompressedSeek
	}
	src, err := tsio.Open(path)
	if err != nil {
		return nil, tserrors.NewIndexError("opening input", err)
	}
	defer src.Close()

	return build(src, opts)
}

func build(r io.Reader, opts tsio.CSVOptions) (*Index, error) {
	cr := tsio.NewCSVReader(bufio.NewReaderSize(r, 1<<20), opts)
	if _, err := cr.ReadHeaders(); err != nil {
		return nil, tserrors.NewIndexError("reading headers", err)
	}

	idx := &Index{delimiter: opts.Delimiter, header: opts.Header}
	for {
		offset := cr.Offset()
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, tserrors.NewIndexError(fmt.Sprintf("reading record %d", len(idx.offsets)), err)
		}
		idx.offsets = append(idx.offsets, offset)
	}
	return idx, nil
}

// Rows returns the number of data records.
func (idx *Index) Rows() uint64 { return uint64(len(idx.offsets)) }

// Seek returns the byte offset where data record row starts.
func (idx *Index) Seek(row uint64) (int64, error) {
	if row >= idx.Rows() {
		return 0, tserrors.NewIndexError(fmt.Sprintf("row %d out of range [0, %d)", row, idx.Rows()), nil)
	}
	return idx.offsets[row], nil
}

// Matches reports whether the index was built with the same CSV options.
// Offsets depend on both the delimiter and the header row.
func (idx *Index) Matches(opts tsio.CSVOptions) bool {
	return idx.delimiter == opts.Delimiter && idx.header == opts.Header
}

// WriteTo writes the index in its binary form.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	var flags uint32
	if idx.header {
		flags |= flagHeader
	}

	buf := make([]byte, 0, 24+8*len(idx.offsets))
	buf = append(buf, magic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, flags)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(idx.delimiter))
	buf = binary.LittleEndian.AppendUint64(buf, idx.Rows())
	for _, off := range idx.offsets {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(off))
	}

	n, err := w.Write(buf)
	return int64(n), err
}

// Read parses an index written by WriteTo.
func Read(r io.Reader) (*Index, error) {
	var head [24]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, tserrors.NewIndexError("reading index header", err)
	}
	if [8]byte(head[:8]) != magic {
		return nil, tserrors.NewIndexError("not a tabstat index", nil)
	}

	flags := binary.LittleEndian.Uint32(head[8:12])
	idx := &Index{
		header:    flags&flagHeader != 0,
		delimiter: rune(binary.LittleEndian.Uint32(head[12:16])),
	}

	rows := binary.LittleEndian.Uint64(head[16:24])
	br := bufio.NewReader(r)
	var word [8]byte
	for i := uint64(0); i < rows; i++ {
		if _, err := io.ReadFull(br, word[:]); err != nil {
			return nil, tserrors.NewIndexError(fmt.Sprintf("reading offset %d of %d", i, rows), err)
		}
		idx.offsets = append(idx.offsets, int64(binary.LittleEndian.Uint64(word[:])))
	}
	return idx, nil
}

// Save writes the index next to the file it indexes.
func (idx *Index) Save(path string) error {
	f, err := os.Create(PathFor(path))
	if err != nil {
		return tserrors.NewIndexError("creating index file", err)
	}
	if _, err := idx.WriteTo(f); err != nil {
		_ = f.Close()
		return tserrors.NewIndexError("writing index file", err)
	}
	if err := f.Close(); err != nil {
		return tserrors.NewIndexError("closing index file", err)
	}
	return nil
}

// Load reads the index stored next to path. It returns an error matching
// errors.ErrNoIndex when there is none and errors.ErrStaleIndex when the
// file changed after the index was written or the index was built with
// other CSV options.
func Load(path string, opts tsio.CSVOptions) (*Index, error) {
	dataInfo, err := os.Stat(path)
	if err != nil {
		return nil, tserrors.NewIndexError("reading input metadata", err)
	}
	idxInfo, err := os.Stat(PathFor(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, tserrors.ErrNoIndex
	}
	if err != nil {
		return nil, tserrors.NewIndexError("reading index metadata", err)
	}
	if idxInfo.ModTime().Before(dataInfo.ModTime()) {
		return nil, tserrors.ErrStaleIndex
	}

	f, err := os.Open(PathFor(path))
	if err != nil {
		return nil, tserrors.NewIndexError("opening index file", err)
	}
	defer f.Close()

	idx, err := Read(f)
	if err != nil {
		return nil, err
	}
	if !idx.Matches(opts) {
		return nil, tserrors.ErrStaleIndex.WithHint("index was built with different delimiter or header options")
	}
	return idx, nil
}
