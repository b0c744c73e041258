package http

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Compression algorithms accepted in Config.Compression.
const (
	CompressionNone   = "none"
	CompressionGzip   = "gzip"
	CompressionZstd   = "zstd"
	CompressionZlib   = "zlib"
	CompressionSnappy = "snappy"
)

var contentEncodings = map[string]string{
	CompressionGzip:   "gzip",
	CompressionZstd:   "zstd",
	CompressionZlib:   "deflate",
	CompressionSnappy: "snappy",
}

// compressor encodes request bodies with one algorithm.
type compressor struct {
	algorithm string
	zstd      *zstd.Encoder
}

func newCompressor(algorithm string) (*compressor, error) {
	c := &compressor{algorithm: algorithm}

	switch algorithm {
	case CompressionNone, "", CompressionGzip, CompressionZlib, CompressionSnappy:
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}

		c.zstd = enc
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
	}

	return c, nil
}

// compress returns data encoded with the configured algorithm.
func (c *compressor) compress(data []byte) ([]byte, error) {
	switch c.algorithm {
	case CompressionGzip:
		return streamCompress(data, func(w io.Writer) io.WriteCloser {
			return gzip.NewWriter(w)
		})
	case CompressionZlib:
		return streamCompress(data, func(w io.Writer) io.WriteCloser {
			return zlib.NewWriter(w)
		})
	case CompressionZstd:
		return c.zstd.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	case CompressionSnappy:
		return snappy.Encode(nil, data), nil
	default:
		return data, nil
	}
}

// contentEncoding returns the Content-Encoding header value, or "" when
// the body is sent as is.
func (c *compressor) contentEncoding() string {
	return contentEncodings[c.algorithm]
}

func (c *compressor) close() error {
	if c.zstd != nil {
		return c.zstd.Close()
	}

	return nil
}

func streamCompress(data []byte, wrap func(io.Writer) io.WriteCloser) ([]byte, error) {
	var buf bytes.Buffer

	w := wrap(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compressing body: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finishing compressed body: %w", err)
	}

	return buf.Bytes(), nil
}
