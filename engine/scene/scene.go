package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/camera"
	"github.com/Carmen-Shannon/eyengine/engine/model"
	"github.com/Carmen-Shannon/eyengine/engine/renderer"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// DrawItem is one entry of a scene's draw list: a mesh drawn with a pipeline, an optional
// instance buffer in slot 1, and the bind group providers the pipeline reads.
type DrawItem struct {
	// Key identifies the item within the scene.
	Key string

	// Pipeline is the key of a pipeline registered with the scene's renderer.
	Pipeline string

	Model         model.Model
	Instances     *wgpu.Buffer
	InstanceCount uint32

	// BindGroups are bound at their own group index.
	BindGroups []bind_group_provider.BindGroupProvider
}

// supplied collects what the item's providers declare.
func (d DrawItem) supplied() []pipeline.SuppliedResource {
	var out []pipeline.SuppliedResource
	for _, bg := range d.BindGroups {
		out = append(out, bg.Supplied()...)
	}
	return out
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu sync.Mutex

	name     string
	active   bool
	camera   camera.Camera
	renderer renderer.Renderer

	items    []DrawItem
	override string
}

// Scene is a draw list with a camera. Every item is checked against its pipeline's descriptor
// when it is added, and again against the override pipeline when one is set, so a frame never
// binds a mesh or a bind group the pipeline's shaders did not agree to.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is drawn.
	Active() bool

	// SetActive sets whether this scene is drawn.
	SetActive(active bool)

	// Camera returns the scene's camera, nil if none.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// SetRenderer replaces the scene's renderer.
	//
	// Parameters:
	//   - r: the new renderer
	SetRenderer(r renderer.Renderer)

	// Add appends an item to the draw list after checking it against its pipeline: the model
	// layout must match the pipeline's vertex buffer, an instanced pipeline needs an instance
	// buffer, and the providers must supply every resource the shaders declare. An item with
	// an existing key replaces it.
	//
	// Parameters:
	//   - item: the draw item
	//
	// Returns:
	//   - error: error if the pipeline is unknown or the item does not satisfy it
	Add(item DrawItem) error

	// Remove removes the item with key.
	//
	// Parameters:
	//   - key: the item key
	Remove(key string)

	// Items returns a copy of the draw list in draw order.
	//
	// Returns:
	//   - []DrawItem: the items
	Items() []DrawItem

	// Count returns the number of items in the draw list.
	//
	// Returns:
	//   - int: the item count
	Count() int

	// SetPipelineOverride draws every item with the pipeline registered at key instead of its
	// own. Each item is checked against the override first; on failure the previous override
	// is kept. An empty key clears the override.
	//
	// Parameters:
	//   - key: the override pipeline key, "" to clear
	//
	// Returns:
	//   - error: error if an item does not satisfy the override pipeline
	SetPipelineOverride(key string) error

	// PipelineOverride returns the override pipeline key, "" if none.
	//
	// Returns:
	//   - string: the override key
	PipelineOverride() string

	// Update advances the camera controller and uploads the camera uniform to each camera
	// binding the drawn pipelines declare.
	Update()

	// DrawCalls records every item into the renderer's current frame.
	//
	// Returns:
	//   - error: the joined draw errors, nil if every item was drawn
	DrawCalls() error
}

var _ Scene = &scene{}

// NewScene creates an active, empty scene drawing through r.
//
// Parameters:
//   - name: the scene name
//   - r: the renderer items are drawn with
//   - options: SceneBuilderOption values
//
// Returns:
//   - Scene: the scene
//   - error: error if an item given with WithItems is rejected
func NewScene(name string, r renderer.Renderer, options ...SceneBuilderOption) (Scene, error) {
	s := &scene{
		name:     name,
		active:   true,
		renderer: r,
	}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *scene) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer
}

func (s *scene) SetRenderer(r renderer.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = r
}

func (s *scene) Add(item DrawItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(item)
}

func (s *scene) add(item DrawItem) error {
	if item.Model == nil {
		return fmt.Errorf("draw item %q has no model", item.Key)
	}
	if err := s.check(item, item.Pipeline); err != nil {
		return err
	}
	if s.override != "" {
		if err := s.check(item, s.override); err != nil {
			return err
		}
	}

	if i := slices.IndexFunc(s.items, func(d DrawItem) bool { return d.Key == item.Key }); i >= 0 {
		s.items[i] = item
	} else {
		s.items = append(s.items, item)
	}
	common.Logger().Debug("draw item added", "scene", s.name, "item", item.Key, "pipeline", item.Pipeline)
	return nil
}

// check validates item against the pipeline registered at key.
func (s *scene) check(item DrawItem, key string) error {
	if s.renderer == nil {
		return errors.New("scene has no renderer")
	}
	p := s.renderer.Pipeline(key)
	if p == nil {
		return fmt.Errorf("pipeline %q is not registered", key)
	}
	return checkItem(p.Descriptor(), item)
}

// checkItem validates a draw item against a descriptor. The GPU pipeline reads slot 0 with the
// descriptor's first buffer layout, so the model's layout must carry each of its attributes at
// the same offset and format, with the same stride. Extra model attributes are skipped.
func checkItem(desc pipeline.Descriptor, item DrawItem) error {
	buffers := desc.VertexBuffers()
	if len(buffers) > 1 && item.Instances == nil {
		return fmt.Errorf("draw item %q: pipeline %q needs an instance buffer", item.Key, desc.Key())
	}

	var errs []error
	if len(buffers) > 0 {
		errs = append(errs, meshErrors(buffers[0], item.Model.Layout())...)
	}
	if err := desc.ValidateSupplied(item.supplied()); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("draw item %q with pipeline %q: %w", item.Key, desc.Key(), err)
	}
	return nil
}

// meshErrors compares the buffer layout a pipeline was built with to a model's layout.
func meshErrors(want, have pipeline.VertexBufferLayout) []error {
	var errs []error
	for _, a := range want.Attributes {
		i := slices.IndexFunc(have.Attributes, func(b pipeline.VertexAttribute) bool { return b.Location == a.Location })
		if i < 0 {
			errs = append(errs, &pipeline.LayoutMismatchError{Location: a.Location, Reason: pipeline.LayoutReasonMissing, Detail: "model has no attribute"})
			continue
		}
		b := have.Attributes[i]
		if b.Format != a.Format || b.Offset != a.Offset {
			errs = append(errs, &pipeline.LayoutMismatchError{
				Location: a.Location,
				Reason:   pipeline.LayoutReasonType,
				Detail:   fmt.Sprintf("model has format %v at offset %d, pipeline expects %v at offset %d", b.Format, b.Offset, a.Format, a.Offset),
			})
		}
	}
	if want.Stride != have.Stride {
		errs = append(errs, fmt.Errorf("model stride %d, pipeline stride %d", have.Stride, want.Stride))
	}
	return errs
}

func (s *scene) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(s.items, func(d DrawItem) bool { return d.Key == key })
}

func (s *scene) Items() []DrawItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *scene) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *scene) SetPipelineOverride(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		var errs []error
		for _, item := range s.items {
			if err := s.check(item, key); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
	}
	s.override = key
	return nil
}

func (s *scene) PipelineOverride() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.override
}

func (s *scene) Update() {
	s.mu.Lock()
	cam := s.camera
	r := s.renderer
	keys := s.pipelineKeys()
	s.mu.Unlock()

	if cam == nil {
		return
	}
	cam.Update()

	provider := cam.BindGroupProvider()
	if provider == nil || r == nil {
		return
	}
	uniform := cam.Uniform()
	data := uniform.Marshal()

	var writes []bind_group_provider.BufferWrite
	seen := make(map[uint32]bool)
	for _, key := range keys {
		p := r.Pipeline(key)
		if p == nil {
			continue
		}
		cb, ok := p.Descriptor().Camera()
		if !ok || cb.Group != provider.Group() || seen[cb.Binding] {
			continue
		}
		seen[cb.Binding] = true
		writes = append(writes, bind_group_provider.BufferWrite{Provider: provider, Binding: cb.Binding, Data: data})
	}
	if len(writes) > 0 {
		r.WriteBuffers(writes)
	}
}

// pipelineKeys returns the pipelines the next frame draws with.
func (s *scene) pipelineKeys() []string {
	if s.override != "" {
		return []string{s.override}
	}
	var keys []string
	for _, item := range s.items {
		if !slices.Contains(keys, item.Pipeline) {
			keys = append(keys, item.Pipeline)
		}
	}
	return keys
}

func (s *scene) DrawCalls() error {
	s.mu.Lock()
	items := slices.Clone(s.items)
	override := s.override
	r := s.renderer
	s.mu.Unlock()

	if r == nil {
		return errors.New("scene has no renderer")
	}

	var errs []error
	for _, item := range items {
		key := item.Pipeline
		if override != "" {
			key = override
		}
		if err := r.DrawCall(key, item.Model, item.Instances, item.InstanceCount, item.BindGroups); err != nil {
			errs = append(errs, fmt.Errorf("draw item %q: %w", item.Key, err))
		}
	}
	return errors.Join(errs...)
}
