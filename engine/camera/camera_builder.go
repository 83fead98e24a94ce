package camera

import (
	"github.com/Carmen-Shannon/eyengine/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithEye sets the initial camera position.
//
// Parameters:
//   - eye: world-space position
//
// Returns:
//   - CameraBuilderOption: functional option to set the eye
func WithEye(eye mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.eye = eye
	}
}

// WithTarget sets the initial look-at point.
//
// Parameters:
//   - target: world-space target
//
// Returns:
//   - CameraBuilderOption: functional option to set the target
func WithTarget(target mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = target
	}
}

// WithUp sets the up vector.
//
// Parameters:
//   - up: the up direction, usually +Y
//
// Returns:
//   - CameraBuilderOption: functional option to set the up vector
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithAspect sets the aspect ratio.
//
// Parameters:
//   - aspect: width / height
//
// Returns:
//   - CameraBuilderOption: functional option to set the aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithFovy sets the vertical field of view.
//
// Parameters:
//   - degrees: the field of view in degrees
//
// Returns:
//   - CameraBuilderOption: functional option to set the field of view
func WithFovy(degrees float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fovy = degrees
	}
}

// WithClip sets the near and far clipping planes.
//
// Parameters:
//   - near: near plane distance, greater than zero
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the clipping planes
func WithClip(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithController attaches a controller that drives eye and target through Update.
//
// Parameters:
//   - ctrl: the controller
//
// Returns:
//   - CameraBuilderOption: functional option to attach the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}

// WithBindGroupProvider attaches the provider that holds the camera uniform buffer.
//
// Parameters:
//   - p: the provider
//
// Returns:
//   - CameraBuilderOption: functional option to attach the provider
func WithBindGroupProvider(p bind_group_provider.BindGroupProvider) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.bindGroupProvider = p
	}
}
