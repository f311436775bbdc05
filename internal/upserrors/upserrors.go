// Package upserrors provides the error taxonomy for the upscaler worker.
//
// It re-exports github.com/cockroachdb/errors so every package in this
// module wraps with stack traces and hints instead of bare fmt.Errorf, and
// declares one sentinel per failure category named in the protocol and
// engine designs so callers can classify a failure with errors.Is instead
// of string matching.
package upserrors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
	Is    = crdb.Is
	As    = crdb.As
)

// Sentinel errors for the taxonomy. Wrap these with Wrap/Wrapf to add
// context while preserving classification via Is.
var (
	// ErrDecode indicates the input byte stream was empty or unrecognised.
	ErrDecode = New("decode failed")

	// ErrEncode indicates the codec refused to produce output bytes.
	ErrEncode = New("encode failed")

	// ErrFormatUnsupported indicates an unknown output format was requested.
	ErrFormatUnsupported = New("unsupported output format")

	// ErrModelMissing indicates neither the requested nor the fallback
	// model pair exists on disk. Fatal at engine init.
	ErrModelMissing = New("model files missing")

	// ErrInferenceFailure indicates the runtime returned a non-zero status
	// from a forward pass, after any fallback attempt was exhausted.
	ErrInferenceFailure = New("inference failed")

	// ErrProtocolInvalidFrame indicates a malformed protocol v2 outer frame
	// (bad length, zero-length shutdown aside).
	ErrProtocolInvalidFrame = New("invalid frame")

	// ErrProtocolValidation indicates a semantically invalid protocol v2
	// request body.
	ErrProtocolValidation = New("request validation failed")

	// ErrProtocolEngineError indicates inference failed mid-batch while
	// serving a protocol v2 request.
	ErrProtocolEngineError = New("engine failed mid-batch")

	// ErrIO indicates a standard-stream read/write failure. Always fatal.
	ErrIO = New("i/o failure")
)
