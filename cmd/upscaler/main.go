// Command upscaler is the image upscaling worker process: a CLI that loads
// one neural super-resolution engine and dispatches to one of the run
// modes in spec.md §6 (file, single-stdin, legacy batch, streaming batch,
// protocol-v2 keep-alive), modelled on the teacher pack's direct CGo/flag
// CLI posture (Adi-Baba-GAP/engine/main.go) and cobra wiring
// (teranos-QNTX/cmd/qntx/main.go).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdreader/ncnn-upscaler-go/internal/config"
	"github.com/bdreader/ncnn-upscaler-go/internal/engine"
	"github.com/bdreader/ncnn-upscaler-go/internal/logging"
	"github.com/bdreader/ncnn-upscaler-go/internal/modes"
)

func main() {
	opts := &config.Options{}

	root := &cobra.Command{
		Use:   "upscaler",
		Short: "Neural image upscaling worker process",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.FinalizeNoiseSet(cmd, opts)
			return run(*opts)
		},
	}
	config.BindFlags(root, opts)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts config.Options) error {
	if err := logging.Initialize(opts.Verbose); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logging.Sync()

	engCfg, err := modes.BuildEngineConfig(opts)
	if err != nil {
		os.Exit(1)
	}

	eng, err := engine.New(engCfg)
	if err != nil {
		logging.Log.Errorw("engine init failed", "error", err)
		os.Exit(1)
	}
	defer eng.Cleanup()

	if err := dispatch(eng, opts); err != nil {
		logging.Log.Errorw("processing failed", "error", err)
		os.Exit(1)
	}
	return nil
}

func dispatch(eng engine.Engine, opts config.Options) error {
	switch opts.Mode {
	case "file", "":
		return modes.RunFile(eng, opts.Input, opts.Output)

	case "stdin":
		if opts.KeepAlive {
			return modes.RunProtocolV2(eng, os.Stdin, os.Stdout, opts.MaxBatchItems)
		}
		if opts.BatchSize > 0 {
			_, err := modes.RunStreamingBatch(eng, os.Stdin, os.Stdout, opts.BatchSize, opts.Profiling || opts.Verbose)
			return err
		}
		return modes.RunSingleStdin(eng, os.Stdin, os.Stdout)

	case "batch":
		return modes.RunLegacyBatch(eng, os.Stdin, os.Stdout, opts.MaxBatchItems, opts.KeepAlive)

	default:
		return fmt.Errorf("unknown mode %q", opts.Mode)
	}
}
