package modes

import (
	"io"

	"github.com/bdreader/ncnn-upscaler-go/internal/engine"
	"github.com/bdreader/ncnn-upscaler-go/internal/logging"
	"github.com/bdreader/ncnn-upscaler-go/internal/protocol"
)

var legacyLog = logging.Named("legacy_batch")

// RunLegacyBatch implements --mode=batch: one legacy framed exchange, or,
// with --keep-alive, a loop of exchanges until EOF (spec.md §6 "Legacy
// batch file format", §10 "Legacy batch keep_alive looping", supplemented
// from original_source's run_batch_mode).
func RunLegacyBatch(eng engine.Engine, r io.Reader, w io.Writer, maxBatchItems int, keepAlive bool) error {
	for {
		if err := runLegacyBatchOnce(eng, r, w, maxBatchItems); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !keepAlive {
			return nil
		}
	}
}

func runLegacyBatchOnce(eng engine.Engine, r io.Reader, w io.Writer, maxBatchItems int) error {
	req, err := protocol.ReadLegacyRequest(r)
	if err != nil {
		return err
	}

	results := make([]protocol.LegacyResult, len(req.Images))
	for i, img := range req.Images {
		if i >= maxBatchItems {
			// Open Question (a): images beyond max_batch_items still get a
			// size-0, status=fail slot in the echoed-count response.
			results[i] = protocol.LegacyResult{OK: false}
			continue
		}
		out, err := eng.ProcessSingle(img)
		if err != nil {
			legacyLog.Warnw("legacy batch item failed, continuing", "index", i, "error", err)
			results[i] = protocol.LegacyResult{OK: false}
			continue
		}
		results[i] = protocol.LegacyResult{OK: true, Output: out}
	}

	return protocol.WriteLegacyResponse(w, req.Version, req.NumImages, results)
}
