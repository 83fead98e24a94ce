package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithOrbitTarget sets the pivot point.
//
// Parameters:
//   - target: world-space target
//
// Returns:
//   - CameraControllerOption: functional option to set the target
func WithOrbitTarget(target mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = target
	}
}

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: distance from the target
//
// Returns:
//   - CameraControllerOption: functional option to set the radius
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
	}
}

// WithAngles sets the initial azimuth and elevation.
//
// Parameters:
//   - azimuth: horizontal angle in radians, 0 on the +Z axis
//   - elevation: vertical angle in radians, 0 on the horizontal plane
//
// Returns:
//   - CameraControllerOption: functional option to set the angles
func WithAngles(azimuth, elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.azimuth = azimuth
		cc.elevation = elevation
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - min: minimum zoom distance
//   - max: maximum zoom distance
//
// Returns:
//   - CameraControllerOption: functional option to set radius bounds
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithElevationBounds sets the minimum and maximum elevation angles.
//
// Parameters:
//   - min: minimum vertical angle in radians
//   - max: maximum vertical angle in radians
//
// Returns:
//   - CameraControllerOption: functional option to set elevation bounds
func WithElevationBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minElevation = min
		cc.maxElevation = max
	}
}

// WithSpeeds sets the keyboard orbit step, the mouse drag sensitivity and the zoom multiplier.
//
// Parameters:
//   - orbit: radians per orbit call
//   - mouse: radians per pixel of drag
//   - zoom: radius change per unit of scroll
//
// Returns:
//   - CameraControllerOption: functional option to set the speeds
func WithSpeeds(orbit, mouse, zoom float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = orbit
		cc.mouseSensitivity = mouse
		cc.zoomSpeed = zoom
	}
}
