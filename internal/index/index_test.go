package index_test

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	tserrors "github.com/paveg/tabstat/internal/errors"
	"github.com/paveg/tabstat/internal/index"
	tsio "github.com/paveg/tabstat/internal/io"
	"github.com/paveg/tabstat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const data = "id,note\n1,plain\n2,\"two\nlines\"\n3,\n4,last\n"

func TestBuild_Offsets(t *testing.T) {
	path := testutil.WriteFile(t, "in.csv", data)

	idx, err := index.Build(path, tsio.DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), idx.Rows())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	// every offset starts exactly at its record
	expected := []string{"1", "2", "3", "4"}
	for row, id := range expected {
		off, err := idx.Seek(uint64(row))
		require.NoError(t, err)

		_, err = f.Seek(off, io.SeekStart)
		require.NoError(t, err)
		r := tsio.NewCSVReader(f, tsio.CSVOptions{Delimiter: ',', Header: false})
		rec, err := r.Read()
		require.NoError(t, err)
		assert.Equal(t, id, rec[0])
	}

	_, err = idx.Seek(4)
	assert.Error(t, err)
}

func TestBuild_NoHeader(t *testing.T) {
	path := testutil.WriteFile(t, "in.csv", "a\nb\n")
	opts := tsio.DefaultCSVOptions()
	opts.Header = false

	idx, err := index.Build(path, opts)
	require.NoError(t, err)
	require.Equal(t, uint64(2), idx.Rows())

	off, err := idx.Seek(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), off)
}

func TestBuild_Compressed(t *testing.T) {
	_, err := index.Build("in.csv.zst", tsio.DefaultCSVOptions())
	assert.ErrorIs(t, err, tserrors.ErrCompressedSeek)
}

func TestIndex_RoundTrip(t *testing.T) {
	path := testutil.WriteFile(t, "in.tsv", "x\ty\n1\t2\n")
	opts := tsio.CSVOptions{Delimiter: '\t', Header: true}

	idx, err := index.Build(path, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = idx.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := index.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, idx, loaded)
	assert.True(t, loaded.Matches(opts))
	assert.False(t, loaded.Matches(tsio.DefaultCSVOptions()))

	_, err = index.Read(bytes.NewReader([]byte("garbage that is long enough")))
	assert.ErrorContains(t, err, "not a tabstat index")
}

func TestLoad(t *testing.T) {
	opts := tsio.DefaultCSVOptions()
	path := testutil.WriteFile(t, "in.csv", data)

	_, err := index.Load(path, opts)
	require.ErrorIs(t, err, tserrors.ErrNoIndex)

	idx, err := index.Build(path, opts)
	require.NoError(t, err)
	require.NoError(t, idx.Save(path))
	assert.FileExists(t, index.PathFor(path))

	loaded, err := index.Load(path, opts)
	require.NoError(t, err)
	assert.Equal(t, idx.Rows(), loaded.Rows())

	noHeader := opts
	noHeader.Header = false
	_, err = index.Load(path, noHeader)
	assert.ErrorIs(t, err, tserrors.ErrStaleIndex)

	// touching the data file after indexing makes the index stale
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	_, err = index.Load(path, opts)
	assert.ErrorIs(t, err, tserrors.ErrStaleIndex)
}
