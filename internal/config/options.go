// Package config binds the CLI surface of spec.md §6 to a cobra command,
// the way teranos-QNTX's cmd/qntx/main.go wires its root command's flags.
package config

import (
	"github.com/spf13/cobra"
)

// Options is the fully resolved set of CLI flags (spec.md §6 "CLI flags").
type Options struct {
	Engine  string // realcugan|realesrgan
	Mode    string // file|stdin|batch
	Input   string
	Output  string
	GPUID   string // "auto" | "<int>"
	TileSize int
	Scale    int
	Noise    int
	NoiseSet bool
	Quality  string // F|E|Q|H
	Model      string // model root override
	ModelName  string
	Format     string // webp|png|jpg
	MaxBatchItems int
	BatchSize     int
	KeepAlive     bool
	Profiling     bool
	Verbose       bool
}

// BindFlags registers every spec.md §6 flag on cmd, writing parsed values
// into opts. NoiseSet is set by FinalizeNoiseSet from whether --noise was
// explicitly passed, mirroring spec.md §3's "derived from a single-letter
// quality flag ... if the integer is absent".
func BindFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.Flags()
	flags.StringVar(&opts.Engine, "engine", "realcugan", "inference engine: realcugan|realesrgan")
	flags.StringVar(&opts.Mode, "mode", "file", "run mode: file|stdin|batch")
	flags.StringVar(&opts.Input, "input", "", "input file path (file mode)")
	flags.StringVar(&opts.Output, "output", "", "output file path (file mode)")
	flags.StringVar(&opts.GPUID, "gpu-id", "auto", "GPU device id, 'auto', or negative for CPU-only")
	flags.IntVar(&opts.TileSize, "tile-size", 0, "tile size override, 0 = engine default")
	flags.IntVar(&opts.Scale, "scale", 2, "upscale factor {2,3,4} (RealESRGAN)")
	flags.IntVar(&opts.Noise, "noise", -1, "RealCUGAN noise level {-1..3}")
	flags.StringVar(&opts.Quality, "quality", "E", "RealCUGAN quality letter {F,E,Q,H}")
	flags.StringVar(&opts.Model, "model", "", "model root directory")
	flags.StringVar(&opts.ModelName, "model-name", "", "explicit RealESRGAN model base name")
	flags.StringVar(&opts.Format, "format", "webp", "output image format: webp|png|jpg")
	flags.IntVar(&opts.MaxBatchItems, "max-batch-items", 8, "max images per protocol-v2 request")
	flags.IntVar(&opts.BatchSize, "batch-size", 0, ">0 selects the streaming batch pipeline in stdin mode")
	flags.BoolVar(&opts.KeepAlive, "keep-alive", false, "run the protocol-v2 keep-alive session loop")
	flags.BoolVar(&opts.Profiling, "profiling", false, "sample memory usage during batch processing")
	flags.BoolVar(&opts.Verbose, "verbose", false, "raise log level from warn to info")
}

// FinalizeNoiseSet must run after cmd.Execute() resolves flags, recording
// whether --noise was explicitly passed versus left at its -1 default.
func FinalizeNoiseSet(cmd *cobra.Command, opts *Options) {
	opts.NoiseSet = cmd.Flags().Changed("noise")
}
