package archive

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

const (
	chunkSize   = 64 << 10
	sealedChunk = chunkSize + secretbox.Overhead
	prefixSize  = 16
	finalChunk  = uint64(1) << 63

	// bodyHeaderSize is the method byte plus the nonce prefix.
	bodyHeaderSize = 1 + prefixSize
)

func chunkNonce(prefix *[prefixSize]byte, counter uint64, final bool) *[24]byte {
	var nonce [24]byte
	copy(nonce[:], prefix[:])
	if final {
		counter |= finalChunk
	}
	binary.BigEndian.PutUint64(nonce[prefixSize:], counter)
	return &nonce
}

// sealWriter encrypts a stream in chunks. A chunk is sealed only once more
// data arrives or the writer is closed, so the final flag is always known.
type sealWriter struct {
	w       io.Writer
	key     *[32]byte
	prefix  [prefixSize]byte
	counter uint64
	buf     []byte
	out     []byte
	closed  bool
}

func newSealWriter(w io.Writer, key *[32]byte, method Method) (*sealWriter, error) {
	s := &sealWriter{w: w, key: key, buf: make([]byte, 0, chunkSize)}
	if _, err := io.ReadFull(rand.Reader, s.prefix[:]); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", kerrors.ErrCrypto, err)
	}
	header := append([]byte{byte(method)}, s.prefix[:]...)
	if _, err := w.Write(header); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sealWriter) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errors.New("write to closed stream")
	}
	n := 0
	for len(p) > 0 {
		if len(s.buf) == chunkSize {
			if err := s.seal(false); err != nil {
				return n, err
			}
		}
		c := copy(s.buf[len(s.buf):chunkSize], p)
		s.buf = s.buf[:len(s.buf)+c]
		p = p[c:]
		n += c
	}
	return n, nil
}

func (s *sealWriter) seal(final bool) error {
	if s.counter == finalChunk-1 {
		return fmt.Errorf("%w: stream too long", kerrors.ErrCrypto)
	}
	s.out = secretbox.Seal(s.out[:0], s.buf, chunkNonce(&s.prefix, s.counter, final), s.key)
	s.counter++
	s.buf = s.buf[:0]
	_, err := s.w.Write(s.out)
	return err
}

// Close seals the final chunk. It does not close the underlying writer.
func (s *sealWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.seal(true)
}

// openReader decrypts a stream written by sealWriter.
type openReader struct {
	r       *bufio.Reader
	key     *[32]byte
	prefix  [prefixSize]byte
	counter uint64
	in      []byte
	plain   []byte
	pending []byte
	done    bool
}

// newOpenReader consumes the body header and returns the recorded method.
func newOpenReader(r io.Reader, key *[32]byte) (*openReader, Method, error) {
	var header [bodyHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: reading body header: %v", kerrors.ErrCorruptArchive, err)
	}
	o := &openReader{
		r:   bufio.NewReaderSize(r, sealedChunk),
		key: key,
		in:  make([]byte, sealedChunk),
	}
	copy(o.prefix[:], header[1:])
	return o, Method(header[0]), nil
}

func (o *openReader) Read(p []byte) (int, error) {
	for len(o.pending) == 0 {
		if o.done {
			return 0, io.EOF
		}
		if err := o.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, o.pending)
	o.pending = o.pending[n:]
	return n, nil
}

func (o *openReader) next() error {
	n, err := io.ReadFull(o.r, o.in)
	switch {
	case err == io.EOF:
		return fmt.Errorf("%w: body truncated", kerrors.ErrCorruptArchive)
	case err == io.ErrUnexpectedEOF:
		o.done = true
	case err != nil:
		return fmt.Errorf("%w: reading body: %v", kerrors.ErrIO, err)
	default:
		if _, err := o.r.Peek(1); err == io.EOF {
			o.done = true
		}
	}

	plain, ok := secretbox.Open(o.plain[:0], o.in[:n], chunkNonce(&o.prefix, o.counter, o.done), o.key)
	if !ok {
		return fmt.Errorf("%w: chunk %d failed authentication", kerrors.ErrCorruptArchive, o.counter)
	}
	o.counter++
	o.plain = plain
	o.pending = plain
	return nil
}

// seal encrypts a small value with a fresh 24-byte nonce prepended.
func seal(plaintext []byte, key *[32]byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", kerrors.ErrCrypto, err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, key), nil
}

// open reverses seal.
func open(ciphertext []byte, key *[32]byte) ([]byte, error) {
	if len(ciphertext) < 24+secretbox.Overhead {
		return nil, fmt.Errorf("%w: sealed value too short", kerrors.ErrCorruptArchive)
	}
	var nonce [24]byte
	copy(nonce[:], ciphertext[:24])
	plaintext, ok := secretbox.Open(nil, ciphertext[24:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("%w: sealed value failed authentication", kerrors.ErrCorruptArchive)
	}
	return plaintext, nil
}
