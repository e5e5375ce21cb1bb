package hfdata

import (
	"compress/bzip2"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// stream is a decompressed body that closes its decoder and the raw source.
type stream struct {
	io.Reader
	closers []func() error
}

func (s *stream) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Decompress wraps r in a decoder chosen by the suffix of name: .gz, .zst or
// .bz2. Any other name is passed through. Closing the result closes r.
func Decompress(name string, r io.ReadCloser) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".bz2"):
		return &stream{Reader: bzip2.NewReader(r), closers: []func() error{r.Close}}, nil
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &stream{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
			r.Close,
		}}, nil
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stream{Reader: gz, closers: []func() error{gz.Close, r.Close}}, nil
	default:
		return r, nil
	}
}
