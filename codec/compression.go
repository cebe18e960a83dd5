package codec

import (
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/hupe1980/pandora"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the framing applied around a text artifact.
type Compression uint8

const (
	// None stores the text as is.
	None Compression = iota
	// LZ4 uses the LZ4 frame format (fast, good for intermediate artifacts).
	LZ4
	// Zstd uses the Zstandard frame format (better ratio, good for archives).
	Zstd
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Ext returns the file extension conventionally used for c, including the dot.
func (c Compression) Ext() string {
	switch c {
	case LZ4:
		return ".lz4"
	case Zstd:
		return ".zst"
	default:
		return ""
	}
}

// ParseCompression returns the compression for "none" (or ""), "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zst":
		return Zstd, nil
	default:
		return None, pandora.NewInputError("codec.ParseCompression", "unknown compression %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) {
	switch c {
	case None, LZ4, Zstd:
		return []byte(c.String()), nil
	default:
		return nil, pandora.NewInputError("codec.Compression", "unknown compression %d", int(c))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(text []byte) error {
	parsed, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CompressionFromName infers the compression of a blob from its extension.
func CompressionFromName(name string) Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".lz4":
		return LZ4
	case ".zst", ".zstd":
		return Zstd
	default:
		return None
	}
}

// StripCompressionExt removes a recognized compression extension from name.
func StripCompressionExt(name string) string {
	if c := CompressionFromName(name); c != None {
		return name[:len(name)-len(path.Ext(name))]
	}
	return name
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w so that everything written is compressed with c. Close
// must be called to flush the final frame; it does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, pandora.NewInputError("codec.NewWriter", "unknown compression %d", int(c))
	}
}

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// NewReader wraps r so that reads return the decompressed stream. Close
// releases decoder resources; it does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	default:
		return nil, pandora.NewInputError("codec.NewReader", "unknown compression %d", int(c))
	}
}

// Compress returns data compressed with c.
func Compress(data []byte, c Compression) ([]byte, error) {
	if c == None {
		return data, nil
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, c)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress returns data decompressed with c.
func Decompress(data []byte, c Compression) ([]byte, error) {
	if c == None {
		return data, nil
	}

	r, err := NewReader(bytes.NewReader(data), c)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
