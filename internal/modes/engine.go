// Package modes implements the CLI's three run modes — file, single-stdin,
// and batch (legacy, streaming, and protocol-v2 keep-alive) — each a thin
// wrapper driving the engine and tiling orchestrator (spec.md §6, §9
// "Engine polymorphism", §10 "File mode").
package modes

import (
	"strings"

	"github.com/bdreader/ncnn-upscaler-go/internal/config"
	"github.com/bdreader/ncnn-upscaler-go/internal/engine"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// BuildEngineConfig translates resolved CLI options into an engine.Config.
func BuildEngineConfig(opts config.Options) (engine.Config, error) {
	kind, err := parseEngineKind(opts.Engine)
	if err != nil {
		return engine.Config{}, err
	}

	return engine.Config{
		Kind:             kind,
		ScaleFactor:      opts.Scale,
		Noise:            opts.Noise,
		NoiseSet:         opts.NoiseSet,
		Quality:          strings.ToUpper(opts.Quality),
		ModelRoot:        opts.Model,
		ModelName:        opts.ModelName,
		GPUID:            opts.GPUID,
		TileSizeOverride: opts.TileSize,
		OutputFormat:     opts.Format,
	}, nil
}

func parseEngineKind(s string) (engine.Kind, error) {
	switch strings.ToLower(s) {
	case "", "realcugan":
		return engine.KindRealCUGAN, nil
	case "realesrgan":
		return engine.KindRealESRGAN, nil
	default:
		return 0, upserrors.Newf("unknown engine %q", s)
	}
}
