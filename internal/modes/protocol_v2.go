package modes

import (
	"errors"
	"io"

	"github.com/bdreader/ncnn-upscaler-go/internal/engine"
	"github.com/bdreader/ncnn-upscaler-go/internal/logging"
	"github.com/bdreader/ncnn-upscaler-go/internal/protocol"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

var protoLog = logging.Named("protocol_v2")

// RunProtocolV2 implements --keep-alive: read one frame, respond with one
// frame, repeat until EOF, a zero-length shutdown frame, or an
// unrecoverable I/O error (spec.md §4.8).
func RunProtocolV2(eng engine.Engine, r io.Reader, w io.Writer, maxBatchItems int) error {
	for {
		if err := runProtocolV2Once(eng, r, w, maxBatchItems); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func runProtocolV2Once(eng engine.Engine, r io.Reader, w io.Writer, maxBatchItems int) error {
	frame, err := protocol.ReadFrame(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		// A malformed outer frame (bad length) still gets a reply, per
		// spec.md §4.8 steps 2-3, before the loop continues.
		return writeInvalidFrameReply(w, err)
	}

	req, err := protocol.ParseRequest(frame)
	if err != nil {
		return writeValidationReply(w, 0, err)
	}
	if err := protocol.ValidateBatchCount(req, maxBatchItems); err != nil {
		return writeValidationReply(w, req.RequestID, err)
	}

	outputs := make([][]byte, 0, len(req.Images))
	for i, img := range req.Images {
		out, err := eng.ProcessSingle(img)
		if err != nil {
			protoLog.Warnw("protocol v2 request aborted by engine error", "request_id", req.RequestID, "index", i, "error", err)
			return protocol.WriteResponseFrame(w, protocol.Response{
				RequestID: req.RequestID,
				Status:    protocol.StatusEngineError,
				ErrorMsg:  upserrors.Wrapf(err, "image %d failed", i).Error(),
			})
		}
		outputs = append(outputs, out)
	}

	return protocol.WriteResponseFrame(w, protocol.Response{
		RequestID: req.RequestID,
		Status:    protocol.StatusOK,
		Outputs:   outputs,
	})
}

func writeInvalidFrameReply(w io.Writer, cause error) error {
	return protocol.WriteResponseFrame(w, protocol.Response{
		Status:   protocol.StatusInvalidFrame,
		ErrorMsg: cause.Error(),
	})
}

func writeValidationReply(w io.Writer, requestID uint32, cause error) error {
	return protocol.WriteResponseFrame(w, protocol.Response{
		RequestID: requestID,
		Status:    protocol.StatusValidationError,
		ErrorMsg:  cause.Error(),
	})
}
