package camera

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraController owns the camera position as spherical coordinates around a target.
// Camera.Update copies Position and Target into the camera each tick.
type CameraController interface {
	// Position returns the eye position derived from the target and the orbit angles.
	//
	// Returns:
	//   - mgl32.Vec3: world-space eye position
	Position() mgl32.Vec3

	// Target returns the pivot point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target
	Target() mgl32.Vec3

	// SetTarget moves the pivot point, keeping the orbit angles and radius.
	//
	// Parameters:
	//   - target: world-space target
	SetTarget(target mgl32.Vec3)

	// OrbitLeft rotates around the target by one orbit step.
	OrbitLeft()

	// OrbitRight rotates around the target by one orbit step.
	OrbitRight()

	// OrbitUp raises the elevation by one orbit step, clamped to the elevation bounds.
	OrbitUp()

	// OrbitDown lowers the elevation by one orbit step, clamped to the elevation bounds.
	OrbitDown()

	// Drag orbits by a cursor delta scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx, dy: cursor movement in pixels
	Drag(dx, dy float32)

	// Zoom changes the radius. Positive delta moves closer, clamped to the radius bounds.
	//
	// Parameters:
	//   - delta: scroll amount scaled by the zoom speed
	Zoom(delta float32)

	// Radius returns the distance from the target.
	//
	// Returns:
	//   - float32: the orbit radius
	Radius() float32

	// Azimuth returns the horizontal angle around +Y, 0 on the +Z axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// Elevation returns the angle above the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32
}

// cameraControllerImpl is the orbit implementation of CameraController.
type cameraControllerImpl struct {
	mu sync.Mutex

	target mgl32.Vec3

	radius    float32
	azimuth   float32
	elevation float32

	minRadius, maxRadius       float32
	minElevation, maxElevation float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates an orbit controller. Defaults frame the 10x10 instance grid:
// radius 20 around the origin at 30 degrees elevation.
//
// Parameters:
//   - options: CameraControllerOption values
//
// Returns:
//   - CameraController: the controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		radius:           20,
		elevation:        math32.Pi / 6,
		minRadius:        1,
		maxRadius:        200,
		minElevation:     -math32.Pi/2 + 0.05,
		maxElevation:     math32.Pi/2 - 0.05,
		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        1,
	}
	for _, opt := range options {
		opt(cc)
	}
	cc.radius = clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = clamp(cc.elevation, cc.minElevation, cc.maxElevation)
	return cc
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cosElev, sinElev := math32.Cos(cc.elevation), math32.Sin(cc.elevation)
	cosAzim, sinAzim := math32.Cos(cc.azimuth), math32.Sin(cc.azimuth)
	return cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.orbit(-cc.orbitSpeed, 0)
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.orbit(cc.orbitSpeed, 0)
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.orbit(0, cc.orbitSpeed)
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.orbit(0, -cc.orbitSpeed)
}

func (cc *cameraControllerImpl) Drag(dx, dy float32) {
	cc.orbit(-dx*cc.mouseSensitivity, dy*cc.mouseSensitivity)
}

func (cc *cameraControllerImpl) orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth = math32.Mod(cc.azimuth+dAzimuth, 2*math32.Pi)
	cc.elevation = clamp(cc.elevation+dElevation, cc.minElevation, cc.maxElevation)
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = clamp(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}
