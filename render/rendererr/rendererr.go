// Package rendererr collects the sentinel and typed errors shared across the
// render packages. Logic errors from API misuse (a sealed buffer, an unknown
// layer, a malformed binary blob) are returned to the caller through these
// values; GPU-facing failures (shader compile/link, pipeline creation) never
// propagate past the backend boundary at all — they are stored as inspectable
// state on the affected object instead, per the propagation policy below.
package rendererr

import "errors"

// Sentinel errors returned by API misuse across render/command, render/graph,
// and render/preset. Backends and bridges wrap these with errors.Is-compatible
// context using fmt.Errorf("...: %w", ...).
var (
	// ErrBackendUnavailable is returned when neither a WebGPU nor a WebGL
	// adapter could be acquired during backend selection.
	ErrBackendUnavailable = errors.New("render: no backend available")

	// ErrBufferSealed is returned by any recording method called on a
	// CommandBuffer after Seal.
	ErrBufferSealed = errors.New("render: command buffer is sealed")

	// ErrInvalidBuffer is returned by FromBinary when the magic is wrong or
	// the payload is truncated.
	ErrInvalidBuffer = errors.New("render: invalid command buffer encoding")

	// ErrUnserializableCommand is returned by ToJSON/ToBinary when the buffer
	// contains a Custom command.
	ErrUnserializableCommand = errors.New("render: buffer contains an unserializable custom command")

	// ErrPresetConflict is returned when a caller attempts to save, delete,
	// or overwrite a reserved built-in profile name.
	ErrPresetConflict = errors.New("render: preset name conflicts with a built-in profile")

	// ErrLayerUnknown is returned when a caller names a layer outside the
	// fixed five-element enumeration.
	ErrLayerUnknown = errors.New("render: unknown layer")
)

// ShaderCompileError reports a single shader stage's compile failure. It is
// stored on the shader program handle rather than returned from a backend
// method — callers inspect it through the backend's CompileError(name)
// accessor.
type ShaderCompileError struct {
	Stage string // "vertex" or "fragment"
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return "render: " + e.Stage + " shader compile failed: " + e.Log
}

// ShaderLinkError reports a program link failure, stored the same way as
// ShaderCompileError.
type ShaderLinkError struct {
	Log string
}

func (e *ShaderLinkError) Error() string {
	return "render: shader link failed: " + e.Log
}

// PipelineCreateError reports a WebGPU pipeline rejection. The named shader
// becomes a permanent no-op for the session rather than aborting the frame.
type PipelineCreateError struct {
	ShaderName string
	Reason     string
}

func (e *PipelineCreateError) Error() string {
	return "render: pipeline creation failed for " + e.ShaderName + ": " + e.Reason
}
