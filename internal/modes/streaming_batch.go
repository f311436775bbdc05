package modes

import (
	"io"

	"github.com/bdreader/ncnn-upscaler-go/internal/engine"
	"github.com/bdreader/ncnn-upscaler-go/internal/pipeline"
)

// RunStreamingBatch implements --mode=stdin with --batch-size > 0: one
// streaming-batch request processed through the three-stage pipeline
// (spec.md §4.7, §6 "batch-size > 0 selects the streaming batch pipeline").
func RunStreamingBatch(eng engine.Engine, r io.Reader, w io.Writer, batchSize int, profiling bool) (pipeline.Metrics, error) {
	return pipeline.Run(r, w, eng, pipeline.Options{
		QueueCapacity: batchSize,
		Profiling:     profiling,
	})
}
