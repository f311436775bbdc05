package protocol

import (
	"io"

	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// MaxStreamingBatchItems bounds a single streaming batch request
// (spec.md §4.7 "u32 count, 1..1000").
const MaxStreamingBatchItems = 1000

// ReadStreamingHeader reads and validates the leading image count of a
// streaming batch request.
func ReadStreamingHeader(r io.Reader) (uint32, error) {
	n, err := readU32(r)
	if err != nil {
		return 0, err
	}
	if n == 0 || n > MaxStreamingBatchItems {
		return 0, upserrors.Wrapf(upserrors.ErrProtocolValidation, "batch count %d out of range [1,%d]", n, MaxStreamingBatchItems)
	}
	return n, nil
}

// ReadStreamingItem reads one u32-length-prefixed image payload.
func ReadStreamingItem(r io.Reader) ([]byte, error) {
	return readLenPrefixed(r, MaxLegacyImageBytes)
}

// WriteStreamingCount echoes the image count immediately, before any
// output payloads are available (spec.md §4.7 "echoed immediately").
func WriteStreamingCount(w io.Writer, n uint32) error {
	if err := writeU32(w, n); err != nil {
		return err
	}
	return flushIfPossible(w)
}

// WriteStreamingItem writes one image's u32 size + payload and flushes, so
// a slow downstream consumer sees each result as soon as it's ready. An
// empty payload is written as a size-0 entry with no status byte. The
// streaming pipeline drops failed images before they reach the writer, so
// a failure is absent from the stream rather than written here.
func WriteStreamingItem(w io.Writer, payload []byte) error {
	if err := writeLenPrefixed(w, payload); err != nil {
		return err
	}
	return flushIfPossible(w)
}
