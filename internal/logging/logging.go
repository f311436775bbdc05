// Package logging provides the structured logger shared by every mode.
//
// It mirrors the teacher pack's logger package: a package-level
// *zap.SugaredLogger, an Initialize entry point driven by a single verbose
// flag, and named field constants so call sites use consistent keys instead
// of ad-hoc strings.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field name constants for structured logging across the worker.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldImageID    = "image_id"
	FieldTile       = "tile"
	FieldTileCount  = "tile_count"
	FieldWidth      = "width"
	FieldHeight     = "height"
	FieldBatchSize  = "batch_size"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
	FieldStatus     = "status"
	FieldBytes      = "bytes"
	FieldDevice     = "device"
)

// Log is the package-level logger. It defaults to a no-op sink so packages
// that log before Initialize is called never panic.
var Log = zap.NewNop().Sugar()

// Initialize configures the global logger. verbose raises the level from
// Warn to Info, matching spec.md's "three-level (error/warn/info), verbose
// enables info".
func Initialize(verbose bool) error {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		level,
	)

	Log = zap.New(core).Sugar()
	return nil
}

// Sync flushes any buffered log entries. Call on process exit.
func Sync() {
	_ = Log.Sync()
}

// Component is a deferred-binding child logger: packages hold one as a
// package-level var, created before Initialize ever runs, so it resolves
// Log freshly on every call instead of freezing in the no-op sink that
// was current at package-init time.
type Component struct {
	name string
}

// Named returns a Component tagged with a component field, the way the
// engine, pipeline, and modes packages each identify their log lines.
func Named(component string) *Component {
	return &Component{name: component}
}

func (c *Component) sugared() *zap.SugaredLogger {
	return Log.With(FieldComponent, c.name)
}

func (c *Component) Warnw(msg string, keysAndValues ...interface{}) {
	c.sugared().Warnw(msg, keysAndValues...)
}

func (c *Component) Infow(msg string, keysAndValues ...interface{}) {
	c.sugared().Infow(msg, keysAndValues...)
}

func (c *Component) Errorw(msg string, keysAndValues ...interface{}) {
	c.sugared().Errorw(msg, keysAndValues...)
}
