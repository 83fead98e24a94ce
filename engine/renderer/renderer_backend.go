package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the surface.
type PresentMode int

const (
	// PresentModeVSync waits for the vertical blank. This is the default, as in the sandbox.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

// MSAASampleCount is the sample count of the colour and depth attachments. WebGPU guarantees
// 1 and 4; other counts are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff renders single-sampled.
	MSAAOff MSAASampleCount = 1

	// MSAA4x renders with 4 samples and resolves into the surface. This is the default.
	MSAA4x MSAASampleCount = 4
)

// RendererBackend is the backend interface the Renderer drives.
type RendererBackend interface {
	wgpuRendererBackend
}
