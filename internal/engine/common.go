package engine

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/bdreader/ncnn-upscaler-go/internal/engine/runtime"
	"github.com/bdreader/ncnn-upscaler-go/internal/logging"
	"github.com/bdreader/ncnn-upscaler-go/internal/tiling"
)

var log = logging.Named("engine")

// modelPairPaths returns the conventional <name>.param / <name>.bin paths
// for a model base name under root (spec.md §6 "Model layout on disk").
func modelPairPaths(root, name string) (paramPath, binPath string) {
	return filepath.Join(root, name+".param"), filepath.Join(root, name+".bin")
}

// modelPairExists reports whether both sibling files for name are present.
func modelPairExists(root, name string) bool {
	paramPath, binPath := modelPairPaths(root, name)
	if _, err := os.Stat(paramPath); err != nil {
		return false
	}
	if _, err := os.Stat(binPath); err != nil {
		return false
	}
	return true
}

// validateModelRoot warns (never fails) if root doesn't look like a
// directory, matching spec.md §4.5 step 1.
func validateModelRoot(root string) {
	info, err := os.Stat(root)
	if err != nil {
		log.Warnw("model root not accessible, relying on fallback selection", "model_root", root, "error", err)
		return
	}
	if !info.IsDir() {
		log.Warnw("model root is not a directory", "model_root", root)
	}
}

// resolveDeviceProfile translates the CLI's --gpu-id string into a
// runtime.DeviceProfile: "auto"/"" => device 0, a parseable int => that
// device, negative => CPU-only (spec.md §3 "Engine configuration").
func resolveDeviceProfile(gpuID string) runtime.DeviceProfile {
	if gpuID == "" || gpuID == "auto" {
		return runtime.DeviceProfile{DeviceID: 0}
	}
	n, err := strconv.Atoi(gpuID)
	if err != nil {
		log.Warnw("unparseable gpu-id, defaulting to device 0", "gpu_id", gpuID)
		return runtime.DeviceProfile{DeviceID: 0}
	}
	if n < 0 {
		return runtime.DeviceProfile{DeviceID: -1}
	}
	// Every non-negative device id is treated as a discrete GPU: Integrated
	// is never set here and neither backend queries the device type, so the
	// iGPU profile and the iGPU tiling config are not applied on this path.
	return runtime.DeviceProfile{DeviceID: n}
}

// deriveTilingConfig applies spec.md §4.5's "Tiling config derivation":
// start from defaults; an explicit override wins and forces tiling for any
// non-trivial image by shrinking the thresholds to match; absent an
// override, an integrated GPU adopts a smaller tile size and threshold.
func deriveTilingConfig(scale, override int, integrated bool) tiling.Config {
	cfg := tiling.DefaultConfig(scale)

	switch {
	case override > 0:
		tileSize := override
		if tileSize < cfg.Overlap+1 {
			tileSize = cfg.Overlap + 1
		}
		cfg.TileSize = tileSize
		cfg.ThresholdW = tileSize
		cfg.ThresholdH = tileSize
	case integrated:
		// Matches the original's apply_igpu_profile: always reduce to 384
		// (never raise it), to keep one tile's working set small on shared
		// GPU memory.
		tileSize := 384
		if tileSize < cfg.Overlap+1 {
			tileSize = cfg.Overlap + 1
		}
		cfg.TileSize = tileSize
		cfg.ThresholdW = 1024
		cfg.ThresholdH = 1024
	}
	return cfg
}

// cleanupOnce guards Cleanup() against being called more than once, the
// idiomatic equivalent of the teacher's pointer-reset double-cleanup guard.
type cleanupOnce struct {
	done bool
}

func (c *cleanupOnce) run(fn func()) {
	if c.done {
		return
	}
	c.done = true
	fn()
}
