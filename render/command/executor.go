package command

import "github.com/vib3/render-core/render/state"

// Executor is the dispatch target a CommandBuffer replays its commands
// against. A backend (package render/backend) implements Executor; the
// buffer itself never imports a concrete backend, keeping command a leaf
// package.
type Executor interface {
	Clear(ClearOptions)
	SetState(state.RenderState)
	SetViewport(Rect)
	SetScissor(Rect)

	// CreateBuffer allocates a GPU buffer from desc and returns its handle.
	// Unlike the rest of Executor's methods, this is never reached through
	// CommandBuffer.Execute's dispatch switch — a CommandBuffer records
	// fire-and-forget GPU state changes, while buffer creation needs an
	// immediate return value, so a caller (render/bridge or a host upload
	// path) invokes it directly against the backend before recording any
	// command that references the returned Buffer.
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	// UpdateBuffer overwrites buf's contents starting at byte offset with
	// data, same direct-call convention as CreateBuffer.
	UpdateBuffer(buf Buffer, data []byte, offset int) error
	// DeleteBuffer releases buf's GPU-side storage. Deleting an already-
	// deleted or unknown buffer is a no-op, not an error.
	DeleteBuffer(buf Buffer) error

	BindShader(name string)
	BindTexture(slot int, name string)
	BindVertexArray(name string)
	BindIndexBuffer(format IndexFormat)
	BindRenderTarget(name string, has bool)
	SetUniform(name string, v any)
	SetUniforms(values []NamedUniform)
	SetRotor(rotor [8]float32)
	SetProjection(p Projection)
	Draw(vertexCount, firstVertex int)
	DrawIndexed(indexCount, firstIndex int)
	DrawInstanced(vertexCount, firstVertex, instanceCount int)
	DrawIndexedInstanced(indexCount, firstIndex, instanceCount int)
	SetBlendMode(b state.BlendState)
	SetDepthState(d state.DepthState)
	SetStencil(s state.StencilState)
	PushState()
	PopState()
}

// dispatch sends one command to the executor. Custom commands invoke their
// callback directly with the executor as the opaque backend argument.
func dispatch(e Executor, c Command) {
	switch c.Kind {
	case KindClear:
		e.Clear(c.Clear)
	case KindSetState:
		e.SetState(c.State)
	case KindSetViewport:
		e.SetViewport(c.Rect)
	case KindSetScissor:
		e.SetScissor(c.Rect)
	case KindBindShader:
		e.BindShader(c.ShaderName)
	case KindBindTexture:
		e.BindTexture(c.TextureSlot, c.TextureName)
	case KindBindVertexArray:
		e.BindVertexArray(c.VertexArray)
	case KindBindIndexBuffer:
		e.BindIndexBuffer(c.IndexFormat)
	case KindBindRenderTarget:
		e.BindRenderTarget(c.RenderTarget, c.HasTarget)
	case KindSetUniform:
		e.SetUniform(c.UniformName, c.UniformValue)
	case KindSetUniforms:
		e.SetUniforms(c.Uniforms)
	case KindSetRotor:
		e.SetRotor(c.Rotor)
	case KindSetProjection:
		e.SetProjection(c.Projection)
	case KindDraw:
		e.Draw(c.VertexCount, c.FirstVertex)
	case KindDrawIndexed:
		e.DrawIndexed(c.IndexCount, c.FirstIndex)
	case KindDrawInstanced:
		e.DrawInstanced(c.VertexCount, c.FirstVertex, c.InstanceCount)
	case KindDrawIndexedInstanced:
		e.DrawIndexedInstanced(c.IndexCount, c.FirstIndex, c.InstanceCount)
	case KindSetBlendMode:
		e.SetBlendMode(c.State.Blend)
	case KindSetDepthState:
		e.SetDepthState(c.State.Depth)
	case KindSetStencil:
		e.SetStencil(c.State.Stencil)
	case KindPushState:
		e.PushState()
	case KindPopState:
		e.PopState()
	case KindCustom:
		if c.Custom.Run != nil {
			c.Custom.Run(e)
		}
	}
}

// isDraw reports whether a command kind is one of the four draw variants,
// used to partition front_to_back/back_to_front sorting.
func isDraw(k Kind) bool {
	switch k {
	case KindDraw, KindDrawIndexed, KindDrawInstanced, KindDrawIndexedInstanced:
		return true
	default:
		return false
	}
}

// isStateChange reports whether a command kind changes bound GPU pipeline
// state, as distinct from draws and the initial per-frame Clear — the set
// Stats.StateChanges counts.
func isStateChange(k Kind) bool {
	switch k {
	case KindSetState, KindBindShader, KindBindTexture, KindBindVertexArray,
		KindBindIndexBuffer, KindBindRenderTarget, KindSetViewport, KindSetScissor,
		KindSetBlendMode, KindSetDepthState, KindSetStencil:
		return true
	default:
		return false
	}
}
