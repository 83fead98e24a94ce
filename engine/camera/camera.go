package camera

import (
	"sync"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu sync.Mutex

	eye    mgl32.Vec3
	target mgl32.Vec3
	up     mgl32.Vec3

	aspect float32
	fovy   float32 // degrees
	near   float32
	far    float32

	controller        CameraController
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera is a perspective camera looking from an eye position at a target. Its only GPU-facing
// product is the view-projection matrix uploaded as GPUCameraUniform.
type Camera interface {
	// Eye returns the camera position.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space eye position
	Eye() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space target
	Target() mgl32.Vec3

	// Up returns the up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Fovy returns the vertical field of view in degrees.
	//
	// Returns:
	//   - float32: the field of view
	Fovy() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the right-handed look-at matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the perspective matrix in WebGPU clip space, depth in [0, 1].
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjection returns ProjectionMatrix * ViewMatrix.
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix
	ViewProjection() mgl32.Mat4

	// Uniform returns the GPU representation of the camera.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform to upload
	Uniform() GPUCameraUniform

	// Controller returns the attached controller, nil if none.
	//
	// Returns:
	//   - CameraController: the controller or nil
	Controller() CameraController

	// BindGroupProvider returns the provider holding the camera uniform buffer, nil if not set.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider or nil
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Update copies the controller's eye and target into the camera. It does nothing without a
	// controller. Call it once per tick.
	Update()

	// SetEye moves the camera.
	//
	// Parameters:
	//   - eye: the new world-space position
	SetEye(eye mgl32.Vec3)

	// SetTarget changes the look-at point.
	//
	// Parameters:
	//   - target: the new world-space target
	SetTarget(target mgl32.Vec3)

	// SetAspect sets the aspect ratio, usually on window resize.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// SetController attaches a controller.
	//
	// Parameters:
	//   - c: the controller
	SetController(c CameraController)

	// SetBindGroupProvider attaches the provider holding the uniform buffer.
	//
	// Parameters:
	//   - p: the provider
	SetBindGroupProvider(p bind_group_provider.BindGroupProvider)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera. Defaults match the instancing sandbox: eye (0, 1, 2) looking at the
// origin with +Y up, 45 degree fovy, near 0.1, far 100 and a square aspect.
//
// Parameters:
//   - options: CameraBuilderOption values
//
// Returns:
//   - Camera: the camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		eye:    mgl32.Vec3{0, 1, 2},
		target: mgl32.Vec3{0, 0, 0},
		up:     mgl32.Vec3{0, 1, 0},
		aspect: 1,
		fovy:   45,
		near:   0.1,
		far:    100,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Fovy() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fovy
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mgl32.LookAtV(c.eye, c.target, c.up)
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection()
}

func (c *cameraImpl) ViewProjection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection().Mul4(mgl32.LookAtV(c.eye, c.target, c.up))
}

// projection must be called with the mutex held.
func (c *cameraImpl) projection() mgl32.Mat4 {
	return common.OpenGLToWGPU.Mul4(mgl32.Perspective(mgl32.DegToRad(c.fovy), c.aspect, c.near, c.far))
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	return GPUCameraUniform{ViewProj: c.ViewProjection()}
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

func (c *cameraImpl) Update() {
	ctrl := c.Controller()
	if ctrl == nil {
		return
	}
	eye, target := ctrl.Position(), ctrl.Target()
	c.mu.Lock()
	c.eye, c.target = eye, target
	c.mu.Unlock()
}

func (c *cameraImpl) SetEye(eye mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eye = eye
}

func (c *cameraImpl) SetTarget(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *cameraImpl) SetBindGroupProvider(p bind_group_provider.BindGroupProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindGroupProvider = p
}
