package engine

import (
	"time"

	"github.com/Carmen-Shannon/eyengine/engine/profiler"
	"github.com/Carmen-Shannon/eyengine/engine/scene"
	"github.com/Carmen-Shannon/eyengine/engine/window"
)

// EngineBuilderOption configures an engine in NewEngine.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the engine draws into and takes input from. Run needs one.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene registers a scene at a z-index.
//
// Parameters:
//   - key: the z-index, lower draws first
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithTickRate sets the tick rate, 60Hz when hz <= 0.
func WithTickRate(hz float64) EngineBuilderOption {
	return func(e *engine) {
		e.tickRate.Store(int64(ratePeriod(hz, defaultTickRate)))
	}
}

// WithRenderFrameLimit caps the render loop, 0 for uncapped.
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameCap.Store(int64(ratePeriod(fps, 0)))
	}
}

// WithTickCallback sets the function called every tick with the delta time in seconds.
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithFrameCallback sets the function called after every frame.
//
// Parameters:
//   - callback: receives the frame report, including draw items their pipeline rejected
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameCallback(callback func(FrameReport)) EngineBuilderOption {
	return func(e *engine) {
		e.frameCallback = callback
	}
}

// WithProfiling turns the once-per-second profiler report on or off.
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profiling.Store(enabled)
	}
}

// WithProfilerInterval enables profiling and sets how often the profiler reports.
//
// Parameters:
//   - interval: the report interval, one second when <= 0
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfilerInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profiling.Store(true)
		e.profiler = profiler.NewProfiler(interval)
	}
}
