package io_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	tserrors "github.com/paveg/tabstat/internal/errors"
	tsio "github.com/paveg/tabstat/internal/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "a,b\n1,2\n3,4\n"

func compressed(t *testing.T, name string, wrap func(io.Writer) io.WriteCloser) string {
	t.Helper()
	var buf bytes.Buffer
	w := wrap(&buf)
	_, err := w.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestDetectCompression(t *testing.T) {
	for path, expected := range map[string]tsio.Compression{
		"data.csv":        tsio.None,
		"data.csv.gz":     tsio.Gzip,
		"DATA.CSV.GZ":     tsio.Gzip,
		"data.tsv.zst":    tsio.Zstd,
		"data.csv.lz4":    tsio.LZ4,
		"data.csv.sz":     tsio.Snappy,
		"data.csv.snappy": tsio.Snappy,
	} {
		assert.Equal(t, expected, tsio.DetectCompression(path), path)
	}
	assert.Equal(t, "zstd", tsio.Zstd.String())
}

func TestOpen_Decompresses(t *testing.T) {
	paths := map[tsio.Compression]string{
		tsio.Gzip: compressed(t, "in.csv.gz", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) }),
		tsio.Zstd: compressed(t, "in.csv.zst", func(w io.Writer) io.WriteCloser {
			enc, err := zstd.NewWriter(w)
			require.NoError(t, err)
			return enc
		}),
		tsio.LZ4:    compressed(t, "in.csv.lz4", func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) }),
		tsio.Snappy: compressed(t, "in.csv.sz", func(w io.Writer) io.WriteCloser { return snappy.NewBufferedWriter(w) }),
	}

	for c, path := range paths {
		t.Run(c.String(), func(t *testing.T) {
			src, err := tsio.Open(path)
			require.NoError(t, err)
			defer src.Close()

			assert.True(t, src.Compressed())
			data, err := io.ReadAll(src)
			require.NoError(t, err)
			assert.Equal(t, sample, string(data))
		})
	}
}

func TestOpen_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	src, err := tsio.Open(path)
	require.NoError(t, err)
	assert.False(t, src.Compressed())
	assert.Equal(t, int64(len(sample)), src.Size)
	require.NoError(t, src.Close())

	at, err := tsio.OpenAt(path, 4)
	require.NoError(t, err)
	defer at.Close()
	rest, err := io.ReadAll(at)
	require.NoError(t, err)
	assert.Equal(t, "1,2\n3,4\n", string(rest))
}

func TestOpen_Errors(t *testing.T) {
	_, err := tsio.Open(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = tsio.OpenAt("in.csv.gz", 10)
	assert.ErrorIs(t, err, tserrors.ErrCompressedSeek)

	bad := filepath.Join(t.TempDir(), "bad.csv.gz")
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0o600))
	_, err = tsio.Open(bad)
	assert.ErrorContains(t, err, "opening gzip stream")
}
