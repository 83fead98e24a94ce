package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Window is the platform window the renderer draws into, and the source of input events.
// Escape or the close button ends the message loop.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for vertical scroll, positive away from the user.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key presses and repeats.
	SetKeyDownCallback(callback func(key common.Key))

	// SetKeyUpCallback sets the callback for key releases.
	SetKeyUpCallback(callback func(key common.Key))

	// SetMiddleMouseCallback sets the callback for middle button presses and releases.
	SetMiddleMouseCallback(callback func(pressed bool, x, y float32))

	// SetCursorCallback sets the callback for cursor movement in window coordinates.
	SetCursorCallback(callback func(x, y float32))

	// SurfaceDescriptor returns the platform surface descriptor for the WebGPU surface.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the message loop should keep running.
	IsRunning() bool

	// RequestClose asks the message loop to stop. Safe to call from any goroutine.
	RequestClose()

	// Close destroys the window and releases platform resources.
	Close() error

	// ProcessMessages runs the message loop on the calling thread until the window closes.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int

	// CursorNormalized returns the cursor position scaled to [0, 1] on both axes.
	CursorNormalized() (float32, float32)
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// Size limits applied to the platform window, 0 means unlimited.
	minWidth, minHeight int
	maxWidth, maxHeight int

	// width and height are the framebuffer size in pixels.
	width  int
	height int

	cursorX, cursorY float32

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(key common.Key)
	onKeyUp       func(key common.Key)
	onMiddleMouse func(pressed bool, x, y float32)
	onCursor      func(x, y float32)
}

var _ Window = &engineWindow{}

// NewWindow creates the platform window. It locks the calling goroutine to its OS thread, which
// must be the main thread on most platforms.
//
// Parameters:
//   - options: WindowBuilderOption values
//
// Returns:
//   - Window: the window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:  "eyengine",
		width:  800,
		height: 600,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(key common.Key)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(key common.Key)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMiddleMouseCallback(callback func(pressed bool, x, y float32)) {
	w.onMiddleMouse = callback
}

func (w *engineWindow) SetCursorCallback(callback func(x, y float32)) {
	w.onCursor = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) CursorNormalized() (float32, float32) {
	return normalize(w.cursorX, w.cursorY, platformWindowSize(w))
}

// normalize scales a cursor position by the window size, clamped to [0, 1].
func normalize(x, y float32, width, height int) (float32, float32) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	return mgl32.Clamp(x/float32(width), 0, 1), mgl32.Clamp(y/float32(height), 0, 1)
}
