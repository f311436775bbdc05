package protocol

import (
	"bytes"
	"io"

	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// V2Magic is the protocol v2 header magic, "BRDR" read little-endian
// (spec.md §3 "Protocol frame").
const V2Magic uint32 = 0x42524452

// V2Version is the only version this worker accepts.
const V2Version uint8 = 2

// MessageType distinguishes a Request frame from a Response frame.
type MessageType uint8

const (
	MsgTypeRequest  MessageType = 1
	MsgTypeResponse MessageType = 2
)

// Status is the outer result of a protocol v2 request.
type Status uint32

const (
	StatusOK              Status = 0
	StatusInvalidFrame    Status = 1
	StatusValidationError Status = 2
	StatusEngineError     Status = 3
)

// MaxV2FrameBytes bounds the outer u32-length frame (spec.md §4.8 step 3).
const MaxV2FrameBytes = 64 * 1024 * 1024

// v2HeaderSize is magic(4) + version(1) + msg_type(1) + request_id(4).
const v2HeaderSize = 4 + 1 + 1 + 4

// EngineKind mirrors spec.md §3's request-body engine enum byte.
type EngineKind uint8

const (
	EngineCUGAN  EngineKind = 0
	EngineESRGAN EngineKind = 1
)

// Header is the fixed-size prefix shared by Request and Response frames.
type Header struct {
	Magic     uint32
	Version   uint8
	MsgType   MessageType
	RequestID uint32
}

// Request is a fully parsed protocol v2 request body (spec.md §3).
type Request struct {
	Header
	Engine         EngineKind
	QualityOrScale string
	GPUID          int32
	Images         [][]byte
}

// Response is a fully built protocol v2 response, ready for Encode.
type Response struct {
	RequestID uint32
	Status    Status
	ErrorMsg  string
	Outputs   [][]byte
}

// ReadFrame reads one outer u32-length + payload frame. A zero length is
// reported as io.EOF to signal the clean-shutdown sentinel of spec.md §4.8
// step 1; the caller's keep-alive loop treats that as a normal exit.
func ReadFrame(r io.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	if n < v2HeaderSize {
		discardFrame(r, n)
		return nil, upserrors.Wrapf(upserrors.ErrProtocolInvalidFrame, "frame length %d shorter than header", n)
	}
	if n > MaxV2FrameBytes {
		discardFrame(r, n)
		return nil, upserrors.Wrapf(upserrors.ErrProtocolInvalidFrame, "frame length %d exceeds %d", n, MaxV2FrameBytes)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, upserrors.Wrap(upserrors.ErrIO, "read frame body")
	}
	return buf, nil
}

// discardFrame reads and drops n bytes so a malformed-length frame doesn't
// leave the stream misaligned for the next read (spec.md §4.8 steps 2-3
// "discard the bytes, reply ... continue").
func discardFrame(r io.Reader, n uint32) {
	_, _ = io.CopyN(io.Discard, r, int64(n))
}

// ParseRequest parses a frame payload already read by ReadFrame into a
// Request, applying every validation rule of spec.md §4.8 steps 4-5.
func ParseRequest(frame []byte) (*Request, error) {
	r := bytes.NewReader(frame)

	magic, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if magic != V2Magic {
		return nil, upserrors.Wrapf(upserrors.ErrProtocolInvalidFrame, "bad magic 0x%08x", magic)
	}
	var versionByte [1]byte
	if _, err := io.ReadFull(r, versionByte[:]); err != nil {
		return nil, upserrors.Wrap(upserrors.ErrIO, "read version")
	}
	if versionByte[0] != V2Version {
		return nil, upserrors.Wrapf(upserrors.ErrProtocolValidation, "unsupported version %d", versionByte[0])
	}
	var msgTypeByte [1]byte
	if _, err := io.ReadFull(r, msgTypeByte[:]); err != nil {
		return nil, upserrors.Wrap(upserrors.ErrIO, "read message type")
	}
	msgType := MessageType(msgTypeByte[0])
	if msgType != MsgTypeRequest {
		return nil, upserrors.Wrapf(upserrors.ErrProtocolValidation, "unexpected message type %d", msgType)
	}
	requestID, err := readU32(r)
	if err != nil {
		return nil, err
	}

	var engineByte [1]byte
	if _, err := io.ReadFull(r, engineByte[:]); err != nil {
		return nil, upserrors.Wrap(upserrors.ErrIO, "read engine byte")
	}
	if engineByte[0] > 1 {
		return nil, upserrors.Wrapf(upserrors.ErrProtocolValidation, "engine byte %d out of range", engineByte[0])
	}

	metaBytes, err := readLenPrefixed(r, 64)
	if err != nil {
		return nil, upserrors.Wrap(upserrors.ErrProtocolValidation, "quality/scale field")
	}

	gpuID, err := readI32(r)
	if err != nil {
		return nil, err
	}

	batchCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if batchCount == 0 {
		return nil, upserrors.Wrap(upserrors.ErrProtocolValidation, "protocol v2 request: batch_count must be >= 1")
	}

	images := make([][]byte, 0, batchCount)
	for i := uint32(0); i < batchCount; i++ {
		img, err := readLenPrefixed(r, MaxLegacyImageBytes)
		if err != nil {
			return nil, upserrors.Wrapf(upserrors.ErrProtocolValidation, "image %d: %s", i, err.Error())
		}
		images = append(images, img)
	}

	if r.Len() != 0 {
		return nil, upserrors.Wrapf(upserrors.ErrProtocolValidation, "%d trailing bytes after request body", r.Len())
	}

	return &Request{
		Header:         Header{Magic: magic, Version: versionByte[0], MsgType: msgType, RequestID: requestID},
		Engine:         EngineKind(engineByte[0]),
		QualityOrScale: string(metaBytes),
		GPUID:          gpuID,
		Images:         images,
	}, nil
}

// ValidateBatchCount checks the parsed request's image count against the
// caller's configured max_batch_items (spec.md §4.8 step 5); ParseRequest
// itself cannot know this limit since it's a CLI option, not wire data.
func ValidateBatchCount(req *Request, maxBatchItems int) error {
	if len(req.Images) > maxBatchItems {
		return upserrors.Wrapf(upserrors.ErrProtocolValidation, "batch_count %d exceeds max_batch_items %d", len(req.Images), maxBatchItems)
	}
	return nil
}

// EncodeResponse serialises a Response as header + body, ready to be
// length-prefixed by WriteResponseFrame.
func EncodeResponse(resp Response) []byte {
	var buf bytes.Buffer
	putU32(&buf, V2Magic)
	buf.WriteByte(byte(V2Version))
	buf.WriteByte(byte(MsgTypeResponse))
	putU32(&buf, resp.RequestID)

	putU32(&buf, uint32(resp.Status))
	putLenPrefixed(&buf, []byte(resp.ErrorMsg))
	putU32(&buf, uint32(len(resp.Outputs)))
	for _, out := range resp.Outputs {
		putLenPrefixed(&buf, out)
	}
	return buf.Bytes()
}

// WriteResponseFrame writes the outer u32 length followed by the encoded
// response body, then flushes (spec.md §4.8 "flushed before reading the
// next request").
func WriteResponseFrame(w io.Writer, resp Response) error {
	body := EncodeResponse(resp)
	if err := writeU32(w, uint32(len(body))); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return upserrors.Wrap(upserrors.ErrIO, "write response frame")
	}
	return flushIfPossible(w)
}

func putU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	tmp[0] = byte(v)
	tmp[1] = byte(v >> 8)
	tmp[2] = byte(v >> 16)
	tmp[3] = byte(v >> 24)
	buf.Write(tmp[:])
}

func putLenPrefixed(buf *bytes.Buffer, data []byte) {
	putU32(buf, uint32(len(data)))
	buf.Write(data)
}
