package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// LargeFileThreshold is the size from which a file needs the large-file profile.
const LargeFileThreshold int64 = 4 << 30

// Method is a compression method for file bodies.
type Method uint8

const (
	Stored   Method = 0
	Deflated Method = 8
	Bzip2    Method = 12
	Zstd     Method = 93
)

var methodNames = map[Method]string{
	Stored:   "stored",
	Deflated: "deflated",
	Bzip2:    "bzip2",
	Zstd:     "zstd",
}

// Methods lists every supported method in menu order.
var Methods = []Method{Stored, Deflated, Bzip2, Zstd}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// ParseMethod accepts the names produced by String, case-insensitively.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown compression method %q", kerrors.ErrInvalidStorageProfile, s)
}

// LevelRange returns the accepted levels for m. ok is false when m takes no level.
func (m Method) LevelRange() (lo, hi int, ok bool) {
	switch m {
	case Deflated, Bzip2:
		return 0, 9, true
	case Zstd:
		return -7, 22, true
	default:
		return 0, 0, false
	}
}

// FileOptions is the storage profile applied to files added after it is set.
type FileOptions struct {
	Method Method

	// Level is the compression level, nil for the method default.
	Level *int

	// LargeFile must be set before adding files of LargeFileThreshold or more.
	LargeFile bool
}

// DefaultOptions returns deflate at its default level.
func DefaultOptions() FileOptions {
	return FileOptions{Method: Deflated}
}

// Validate checks the method and the level range.
func (o FileOptions) Validate() error {
	if _, ok := methodNames[o.Method]; !ok {
		return fmt.Errorf("%w: unknown compression method %d", kerrors.ErrInvalidStorageProfile, o.Method)
	}
	if o.Level == nil {
		return nil
	}
	lo, hi, ok := o.Method.LevelRange()
	if !ok {
		return fmt.Errorf("%w: %s takes no level", kerrors.ErrInvalidStorageProfile, o.Method)
	}
	if *o.Level < lo || *o.Level > hi {
		return fmt.Errorf("%w: level %d outside %d..%d for %s", kerrors.ErrInvalidStorageProfile, *o.Level, lo, hi, o.Method)
	}
	return nil
}

func (o FileOptions) String() string {
	s := o.Method.String()
	if o.Level != nil {
		s += fmt.Sprintf(" level %d", *o.Level)
	}
	if o.LargeFile {
		s += ", large files"
	}
	return s
}

// checkSize rejects files the profile cannot hold.
func (o FileOptions) checkSize(size int64) error {
	if size >= LargeFileThreshold && !o.LargeFile {
		return fmt.Errorf("%w: %d bytes", kerrors.ErrLargeFileProfile, size)
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressor wraps w with the profile's encoder.
func (o FileOptions) compressor(w io.Writer) (io.WriteCloser, error) {
	switch o.Method {
	case Stored:
		return nopWriteCloser{w}, nil
	case Deflated:
		level := flate.DefaultCompression
		if o.Level != nil {
			level = *o.Level
		}
		return flate.NewWriter(w, level)
	case Bzip2:
		cfg := &bzip2.WriterConfig{}
		if o.Level != nil {
			cfg.Level = *o.Level
		}
		return bzip2.NewWriter(w, cfg)
	case Zstd:
		var opts []zstd.EOption
		if o.Level != nil {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(*o.Level)))
		}
		return zstd.NewWriter(w, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown compression method %d", kerrors.ErrInvalidStorageProfile, o.Method)
	}
}

// decompressor undoes compressor for the method recorded in a body header.
func decompressor(m Method, r io.Reader) (io.ReadCloser, error) {
	switch m {
	case Stored:
		return io.NopCloser(r), nil
	case Deflated:
		return flate.NewReader(r), nil
	case Bzip2:
		return bzip2.NewReader(r, nil)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: unknown compression method %d", kerrors.ErrCorruptArchive, m)
	}
}
