package protocol

import (
	"io"

	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// LegacyMagic is the legacy batch file format's magic number
// (spec.md §6 "Legacy batch file format").
const LegacyMagic uint32 = 0x42445250

// LegacyStatusOK / LegacyStatusFail are the per-image status values the
// legacy response writes ahead of each image's size+payload.
const (
	LegacyStatusOK   uint32 = 0
	LegacyStatusFail uint32 = 1
)

// LegacyRequest is a fully parsed legacy batch request.
type LegacyRequest struct {
	Version   uint32
	NumImages uint32
	Images    [][]byte
}

// ReadLegacyRequest parses the legacy batch file format: magic, version,
// num_images, reserved, then num_images images of u32 size + payload.
func ReadLegacyRequest(r io.Reader) (*LegacyRequest, error) {
	magic, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if magic != LegacyMagic {
		return nil, upserrors.Wrapf(upserrors.ErrProtocolInvalidFrame, "bad legacy magic 0x%08x", magic)
	}
	version, err := readU32(r)
	if err != nil {
		return nil, err
	}
	numImages, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if _, err := readU32(r); err != nil { // reserved
		return nil, err
	}

	images := make([][]byte, 0, numImages)
	for i := uint32(0); i < numImages; i++ {
		img, err := readLenPrefixed(r, MaxLegacyImageBytes)
		if err != nil {
			return nil, upserrors.Wrapf(err, "legacy image %d", i)
		}
		images = append(images, img)
	}

	return &LegacyRequest{Version: version, NumImages: numImages, Images: images}, nil
}

// LegacyResult is one image's processing outcome: either OK with non-empty
// Output, or a failure, for which the response writes a size-0 payload
// with status=fail (spec.md's "Open questions" (a)).
type LegacyResult struct {
	OK     bool
	Output []byte
}

// WriteLegacyResponse mirrors the request's magic/version/count (even if
// fewer images were actually processed — spec.md's Open Question (a)
// preserves this asymmetry verbatim) and writes one {status, size, payload}
// triple per result.
func WriteLegacyResponse(w io.Writer, version, numImages uint32, results []LegacyResult) error {
	if err := writeU32(w, LegacyMagic); err != nil {
		return err
	}
	if err := writeU32(w, version); err != nil {
		return err
	}
	if err := writeU32(w, numImages); err != nil {
		return err
	}
	if err := writeU32(w, 0); err != nil { // reserved
		return err
	}

	for _, res := range results {
		status := LegacyStatusOK
		payload := res.Output
		if !res.OK {
			status = LegacyStatusFail
			payload = nil
		}
		if err := writeU32(w, status); err != nil {
			return err
		}
		if err := writeLenPrefixed(w, payload); err != nil {
			return err
		}
	}
	return flushIfPossible(w)
}
