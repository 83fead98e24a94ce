package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/profiler"
	"github.com/Carmen-Shannon/eyengine/engine/scene"
	"github.com/Carmen-Shannon/eyengine/engine/window"
)

const defaultTickRate = time.Second / 60

// FrameReport describes one rendered frame.
type FrameReport struct {
	// Delta is the time since the previous frame in seconds.
	Delta float32

	// Draws is the number of draw items recorded.
	Draws int

	// Err joins the frame's failures: a surface that could not be acquired, or draw items whose
	// pipeline rejected them. Frames with an error still present whatever was drawn.
	Err error
}

// engine implements the Engine interface. The tick loop and the render loop run on their own
// goroutines; the window's message loop owns the calling goroutine.
type engine struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	profiling atomic.Bool
	tickRate  atomic.Int64 // time.Duration
	frameCap  atomic.Int64 // time.Duration, 0 uncapped

	window   window.Window
	profiler *profiler.Profiler

	callbackMu    sync.Mutex
	tickCallback  func(deltaTime float32)
	frameCallback func(FrameReport)

	mu     sync.Mutex
	scenes map[int]scene.Scene
}

// Engine drives scenes: a fixed-rate tick for application logic and a render loop that draws the
// active scenes in z-index order through the first active scene's renderer.
type Engine interface {
	// Window returns the window the engine runs in.
	//
	// Returns:
	//   - window.Window: the window, nil if none was given
	Window() window.Window

	// EnableProfiler starts periodic frame and memory reports.
	EnableProfiler()

	// DisableProfiler stops the reports.
	DisableProfiler()

	// SetTickRate sets how often the tick callback runs.
	//
	// Parameters:
	//   - hz: ticks per second, 60 when <= 0
	SetTickRate(hz float64)

	// SetTickCallback sets the function called every tick.
	//
	// Parameters:
	//   - callback: receives the tick's delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback sets the function called after every frame with its report.
	//
	// Parameters:
	//   - callback: receives the frame report
	SetFrameCallback(callback func(FrameReport))

	// SetRenderFrameLimit caps the render loop.
	//
	// Parameters:
	//   - fps: frames per second, 0 for uncapped
	SetRenderFrameLimit(fps float64)

	// AddScene registers s at a z-index. Lower indices draw first.
	//
	// Parameters:
	//   - key: the z-index
	//   - s: the scene
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at key.
	RemoveScene(key int)

	// Scene returns the scene at key, nil if none.
	Scene(key int) scene.Scene

	// Scenes returns a copy of the scenes keyed by z-index.
	Scenes() map[int]scene.Scene

	// Run starts the tick and render loops and processes window messages until the window
	// closes or Quit is called.
	Run()

	// Quit stops the loops and closes the window. Calling it more than once is harmless.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an engine. The window's resize callback is taken over to resize every
// scene's renderer and camera.
//
// Parameters:
//   - options: EngineBuilderOption values
//
// Returns:
//   - Engine: the engine
func NewEngine(options ...EngineBuilderOption) Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &engine{
		ctx:      ctx,
		cancel:   cancel,
		profiler: profiler.NewProfiler(time.Second),
		scenes:   make(map[int]scene.Scene),
	}
	e.tickRate.Store(int64(defaultTickRate))

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
	}
	return e
}

func (e *engine) resize(width, height int) {
	for _, s := range e.Scenes() {
		if r := s.Renderer(); r != nil {
			r.Resize(width, height)
		}
		if c := s.Camera(); c != nil && height > 0 {
			c.SetAspect(float32(width) / float32(height))
		}
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() {
	if e.window == nil {
		common.Logger().Error("engine has no window")
		return
	}
	e.wg.Add(3)
	go e.tickLoop()
	go e.renderLoop()
	go e.closeOnQuit()

	e.window.ProcessMessages()
	e.Quit()
	e.wg.Wait()
}

func (e *engine) Quit() {
	e.cancel()
}

// tickLoop calls the tick callback at the tick rate, picking up rate changes on the next tick.
func (e *engine) tickLoop() {
	defer e.wg.Done()

	period := time.Duration(e.tickRate.Load())
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-e.ctx.Done():
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if cb := e.tickFn(); cb != nil {
				cb(dt)
			}
			if p := time.Duration(e.tickRate.Load()); p != period {
				period = p
				ticker.Reset(period)
			}
		}
	}
}

// renderLoop draws frames until quit. A panic in a frame is logged and stops the engine.
func (e *engine) renderLoop() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render loop panicked", "panic", fmt.Sprint(r))
			e.Quit()
		}
	}()

	last := time.Now()
	for e.ctx.Err() == nil {
		start := time.Now()
		report := e.renderFrame()
		report.Delta = float32(start.Sub(last).Seconds())
		last = start

		if report.Err != nil {
			common.Logger().Warn("frame", "draws", report.Draws, "err", report.Err)
		}
		if cb := e.frameFn(); cb != nil {
			cb(report)
		}
		if e.profiling.Load() && e.profiler != nil {
			e.profiler.Tick(report.Draws)
		}

		if limit := time.Duration(e.frameCap.Load()); limit > 0 {
			if remaining := limit - time.Since(start); remaining > 0 {
				select {
				case <-e.ctx.Done():
				case <-time.After(remaining):
				}
			}
		}
	}
}

// renderFrame updates and draws the active scenes in one render pass. When the surface texture
// cannot be acquired the surface is reconfigured to the window size and nothing is drawn.
func (e *engine) renderFrame() FrameReport {
	active := e.activeScenes()
	if len(active) == 0 {
		return FrameReport{}
	}
	r := active[0].Renderer()
	if r == nil {
		return FrameReport{}
	}

	for _, s := range active {
		s.Update()
	}

	if err := r.BeginFrame(); err != nil {
		if e.window != nil {
			r.Resize(e.window.Width(), e.window.Height())
		}
		return FrameReport{Err: fmt.Errorf("begin frame: %w", err)}
	}

	var report FrameReport
	var errs []error
	for _, s := range active {
		if err := s.DrawCalls(); err != nil {
			errs = append(errs, fmt.Errorf("scene %s: %w", s.Name(), err))
		}
		report.Draws += s.Count()
	}
	r.EndFrame()
	r.Present()
	report.Err = errors.Join(errs...)
	return report
}

// activeScenes returns the active scenes in ascending z-index order.
func (e *engine) activeScenes() []scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()

	var active []scene.Scene
	for _, k := range common.SortedKeys(e.scenes) {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// closeOnQuit closes the window once the engine is told to quit, which ends Run's message loop.
func (e *engine) closeOnQuit() {
	defer e.wg.Done()
	<-e.ctx.Done()
	e.window.RequestClose()
}

func (e *engine) tickFn() func(float32) {
	e.callbackMu.Lock()
	defer e.callbackMu.Unlock()
	return e.tickCallback
}

func (e *engine) frameFn() func(FrameReport) {
	e.callbackMu.Lock()
	defer e.callbackMu.Unlock()
	return e.frameCallback
}

func (e *engine) EnableProfiler() {
	e.profiling.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profiling.Store(false)
}

func (e *engine) SetTickRate(hz float64) {
	e.tickRate.Store(int64(ratePeriod(hz, defaultTickRate)))
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.callbackMu.Lock()
	defer e.callbackMu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetFrameCallback(callback func(FrameReport)) {
	e.callbackMu.Lock()
	defer e.callbackMu.Unlock()
	e.frameCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.frameCap.Store(int64(ratePeriod(fps, 0)))
}

// ratePeriod converts a rate in hertz to a period, fallback when hz <= 0.
func ratePeriod(hz float64, fallback time.Duration) time.Duration {
	if hz <= 0 {
		return fallback
	}
	return time.Duration(float64(time.Second) / hz)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
