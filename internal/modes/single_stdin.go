package modes

import (
	"io"

	"github.com/bdreader/ncnn-upscaler-go/internal/engine"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// RunSingleStdin implements --mode=stdin without --batch-size or
// --keep-alive: read stdin to EOF, write raw output bytes to stdout
// (spec.md §6 "Single-stdin mode").
func RunSingleStdin(eng engine.Engine, r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return upserrors.Wrap(upserrors.ErrIO, "read stdin")
	}

	out, err := eng.ProcessSingle(data)
	if err != nil {
		return err
	}

	if _, err := w.Write(out); err != nil {
		return upserrors.Wrap(upserrors.ErrIO, "write stdout")
	}
	return nil
}
