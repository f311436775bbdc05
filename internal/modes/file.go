package modes

import (
	"os"

	"github.com/bdreader/ncnn-upscaler-go/internal/engine"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// RunFile implements --mode=file: a single input file to a single output
// file through the given engine (spec.md §10 "File mode").
func RunFile(eng engine.Engine, inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return upserrors.Wrapf(upserrors.ErrIO, "read input file %q", inputPath)
	}

	out, err := eng.ProcessSingle(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return upserrors.Wrapf(upserrors.ErrIO, "write output file %q", outputPath)
	}
	return nil
}
