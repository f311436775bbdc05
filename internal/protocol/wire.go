// Package protocol implements the three wire formats the worker
// understands on standard input/output: the legacy batch file format, the
// streaming batch format, and the length-prefixed protocol v2 session
// (spec.md §3 "Protocol frame", §6, §4.8).
package protocol

import (
	"encoding/binary"
	"io"

	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// MaxLegacyImageBytes bounds a single image payload in the legacy and
// streaming batch formats (spec.md §6 "Max image size 50 MiB").
const MaxLegacyImageBytes = 50 * 1024 * 1024

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			// Propagated unwrapped so callers reading a fresh frame/request
			// from the top can distinguish "stream ended cleanly" from a
			// genuine I/O failure (keep-alive loop exit, batch EOF).
			return 0, io.EOF
		}
		return 0, upserrors.Wrap(upserrors.ErrIO, "read u32")
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return upserrors.Wrap(upserrors.ErrIO, "write u32")
	}
	return nil
}

func readI32(r io.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func writeI32(w io.Writer, v int32) error {
	return writeU32(w, uint32(v))
}

// readLenPrefixed reads a u32 length followed by exactly that many bytes,
// rejecting anything over maxLen.
func readLenPrefixed(r io.Reader, maxLen uint32) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, upserrors.Wrapf(upserrors.ErrProtocolValidation, "payload length %d exceeds limit %d", n, maxLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, upserrors.Wrap(upserrors.ErrIO, "read payload")
	}
	return buf, nil
}

func writeLenPrefixed(w io.Writer, data []byte) error {
	if err := writeU32(w, uint32(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return upserrors.Wrap(upserrors.ErrIO, "write payload")
	}
	return nil
}

// flusher is satisfied by *bufio.Writer, matched structurally so callers
// that wrap standard output in a buffered writer get a flush-per-frame
// without this package importing bufio directly.
type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return upserrors.Wrap(upserrors.ErrIO, "flush output")
		}
	}
	return nil
}
