package hfdata

import (
	"bytes"
	"compress/bzip2"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = "gameId,typeDescKey,situationCode,eventOwnerTeamId,homeTeamId\n1,goal,1551,1,1\n"

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zstdBytes(t *testing.T, s string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll([]byte(s), nil)
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestFileNameAndURL(t *testing.T) {
	assert.Equal(t, "NHL_PBPS_GC_20232024.csv.gz", FileName(20232024))
	c := NewClient("", time.Second, 0, nil)
	assert.Equal(t,
		"https://huggingface.co/datasets/RentoSaijo/NHL_DB/resolve/main/data/game/pbps/gc/NHL_PBPS_GC_20222023.csv.gz",
		c.URL(20222023))
}

func TestClient_Season(t *testing.T) {
	body := gzipBytes(t, table)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/game/pbps/gc/NHL_PBPS_GC_20232024.csv.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second, 0, nil)
	rc, err := c.Season(context.Background(), 20232024)
	require.NoError(t, err)
	assert.Equal(t, table, readAll(t, rc))
}

// TestClient_RetriesServerErrors: a 503 is retried, the next 200 wins.
func TestClient_RetriesServerErrors(t *testing.T) {
	body := gzipBytes(t, table)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 2, nil)
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = time.Millisecond

	rc, err := c.Season(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, table, readAll(t, rc))
	assert.Equal(t, int32(2), calls.Load())
}

// TestClient_NotFoundIsFinal: client errors are not retried.
func TestClient_NotFoundIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 3, nil)
	_, err := c.Season(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(srv.URL, 5*time.Second, 5, nil)
	_, err := c.Season(ctx, 1)
	assert.Error(t, err)
}

func TestDecompress(t *testing.T) {
	rc, err := Decompress("x.csv.zst", io.NopCloser(bytes.NewReader(zstdBytes(t, table))))
	require.NoError(t, err)
	assert.Equal(t, table, readAll(t, rc))

	rc, err = Decompress("x.csv", io.NopCloser(strings.NewReader(table)))
	require.NoError(t, err)
	assert.Equal(t, table, readAll(t, rc))

	_, err = Decompress("x.csv.gz", io.NopCloser(strings.NewReader("not gzip")))
	assert.Error(t, err)
}

// TestDecompress_Bzip2: bzip2 has no writer in the standard library, so only a
// corrupt stream is checked for a read error.
func TestDecompress_Bzip2(t *testing.T) {
	rc, err := Decompress("x.csv.bz2", io.NopCloser(strings.NewReader("garbage")))
	require.NoError(t, err)
	defer rc.Close()
	_, err = io.ReadAll(rc)
	var se bzip2.StructuralError
	assert.ErrorAs(t, err, &se)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NHL_PBPS_GC_1.csv.gz"), gzipBytes(t, table), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NHL_PBPS_GC_2.csv.zst"), zstdBytes(t, table), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NHL_PBPS_GC_3.csv"), []byte(table), 0o644))

	src := DirSource{Dir: dir}
	for _, season := range []int{1, 2, 3} {
		rc, err := src.Season(context.Background(), season)
		require.NoError(t, err, "season %d", season)
		assert.Equal(t, table, readAll(t, rc))
	}

	_, err := src.Season(context.Background(), 4)
	assert.True(t, errors.Is(err, ErrSeasonNotFound))
}
