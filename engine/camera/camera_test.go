package camera

import (
	"testing"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func project(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	clip := m.Mul4x1(p.Vec4(1))
	return clip.Vec3().Mul(1 / clip.W())
}

func TestViewProjectionDepthRange(t *testing.T) {
	cam := NewCamera(WithEye(mgl32.Vec3{0, 0, 5}), WithClip(0.1, 100), WithAspect(16.0/9.0))

	near := project(cam.ViewProjection(), mgl32.Vec3{0, 0, 5 - 0.1})
	far := project(cam.ViewProjection(), mgl32.Vec3{0, 0, 5 - 100})
	centre := project(cam.ViewProjection(), mgl32.Vec3{})

	assert.InDelta(t, 0, near.Z(), 1e-4)
	assert.InDelta(t, 1, far.Z(), 1e-4)
	assert.InDelta(t, 0, centre.X(), 1e-5)
	assert.InDelta(t, 0, centre.Y(), 1e-5)
	assert.Greater(t, centre.Z(), float32(0))
	assert.Less(t, centre.Z(), float32(1))
}

func TestUniformMarshal(t *testing.T) {
	cam := NewCamera()
	u := cam.Uniform()

	buf := u.Marshal()
	require.Len(t, buf, GPUCameraUniformSize)
	assert.Equal(t, GPUCameraUniformSize, u.Size())
	for i := range 16 {
		assert.Equal(t, u.ViewProj[i], common.Float32At(buf, i*4))
	}
}

func TestSetAspectIgnoresNonPositive(t *testing.T) {
	cam := NewCamera(WithAspect(2))
	cam.SetAspect(0)
	assert.Equal(t, float32(2), cam.Aspect())
	cam.SetAspect(1.5)
	assert.Equal(t, float32(1.5), cam.Aspect())
}

func TestIncludeDeclaresCameraBlock(t *testing.T) {
	inc := Include()
	assert.Equal(t, shader.AnnotationArgCamera, inc.Key)
	assert.True(t, inc.Block)
	assert.Contains(t, inc.WGSL, "struct CameraUniform")
	assert.Contains(t, inc.WGSL, "view_proj: mat4x4<f32>")

	src := "//@eye:include camera\n" +
		"//@eye:group 1 0 uniform camera camera\n" +
		"@vertex\nfn vs_main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> {\n" +
		"    return camera.view_proj * vec4<f32>(p, 1.0);\n}\n"
	s, err := shader.NewShaderFromSource("camera", shader.ShaderTypeVertex, src,
		shader.WithPreProcessor(shader.NewPreProcessor(inc)))
	require.NoError(t, err)

	r, ok := s.Signature().Resource(1, 0)
	require.True(t, ok)
	assert.Equal(t, shader.ResourceKindUniform, r.Kind)
	assert.Equal(t, uint64(GPUCameraUniformSize), r.Size)
}

func assertVec3InDelta(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestControllerPosition(t *testing.T) {
	cc := NewCameraController(WithRadius(5), WithAngles(0, 0))
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 5}, cc.Position())

	cc = NewCameraController(WithRadius(5), WithAngles(math32.Pi/2, 0), WithOrbitTarget(mgl32.Vec3{1, 0, 0}))
	assertVec3InDelta(t, mgl32.Vec3{6, 0, 0}, cc.Position())
}

func TestControllerClamps(t *testing.T) {
	cc := NewCameraController(WithRadius(5), WithRadiusBounds(2, 10), WithElevationBounds(0, 0.1), WithSpeeds(0.5, 0.01, 1))

	cc.Zoom(100)
	assert.Equal(t, float32(2), cc.Radius())
	cc.Zoom(-100)
	assert.Equal(t, float32(10), cc.Radius())

	cc.OrbitUp()
	assert.Equal(t, float32(0.1), cc.Elevation())
	cc.OrbitDown()
	cc.OrbitDown()
	assert.Equal(t, float32(0), cc.Elevation())

	cc.OrbitRight()
	assert.InDelta(t, 0.5, cc.Azimuth(), 1e-6)
	cc.OrbitLeft()
	assert.InDelta(t, 0, cc.Azimuth(), 1e-6)
}

func TestUpdateCopiesController(t *testing.T) {
	cc := NewCameraController(WithRadius(3), WithAngles(0, 0), WithOrbitTarget(mgl32.Vec3{0, 1, 0}))
	cam := NewCamera(WithController(cc))

	cam.Update()
	assertVec3InDelta(t, mgl32.Vec3{0, 1, 3}, cam.Eye())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, cam.Target())

	bare := NewCamera()
	bare.Update()
	assert.Equal(t, mgl32.Vec3{0, 1, 2}, bare.Eye())
}
