package geom

import "math"

// CameraType selects camera projection.
type CameraType uint8

const (
	CameraPerspective CameraType = iota
	CameraOrtho
)

// Camera describes the viewing transform of the 3D view.
type Camera struct {
	Type CameraType

	Position Vec3
	Target   Vec3
	Up       Vec3

	// Perspective.
	FOVYRad float64

	// Orthographic (half-height).
	OrthoSize float64

	Near float64
	Far  float64
}

// DefaultCamera looks at the origin from +Z.
func DefaultCamera() Camera {
	return Camera{
		Type:      CameraPerspective,
		Position:  V3(0, 0, 30),
		Target:    V3(0, 0, 0),
		Up:        V3(0, 1, 0),
		FOVYRad:   0.8,
		Near:      0.1,
		Far:       1000,
		OrthoSize: 10,
	}
}

// View returns the camera view matrix.
func (c Camera) View() Mat4 {
	up := c.Up
	if up == (Vec3{}) {
		up = V3(0, 1, 0)
	}
	return Mat4LookAt(c.Position, c.Target, up)
}

// Projection returns the projection matrix for a target aspect.
func (c Camera) Projection(aspect float64) Mat4 {
	switch c.Type {
	case CameraOrtho:
		size := c.OrthoSize
		if size == 0 {
			size = 1
		}
		right := size * aspect
		return Mat4Ortho(-right, right, -size, size, c.Near, c.Far)
	default:
		fov := c.FOVYRad
		if fov == 0 {
			fov = 1
		}
		return Mat4Perspective(fov, aspect, c.Near, c.Far)
	}
}

// ViewProj returns Projection*View.
func (c Camera) ViewProj(aspect float64) Mat4 {
	return Mat4Mul(c.Projection(aspect), c.View())
}

// Project maps a world position to normalized device coordinates.
// ok is false when the point is behind the camera.
func (c Camera) Project(p Vec3, aspect float64) (ndc Vec3, ok bool) {
	clip := Mat4MulV4(c.ViewProj(aspect), Vec4{X: p.X, Y: p.Y, Z: p.Z, W: 1})
	if clip.W <= 0 {
		return Vec3{}, false
	}
	inv := 1 / clip.W
	return Vec3{X: clip.X * inv, Y: clip.Y * inv, Z: clip.Z * inv}, true
}

// ToScreen projects p into a width×height view in pixels, y down.
func (c Camera) ToScreen(p Vec3, width, height int) (Vec2, bool) {
	if width <= 0 || height <= 0 {
		return Vec2{}, false
	}
	ndc, ok := c.Project(p, float64(width)/float64(height))
	if !ok {
		return Vec2{}, false
	}
	return V2((ndc.X+1)*0.5*float64(width), (1-ndc.Y)*0.5*float64(height)), true
}

// Orbit provides orbit/zoom/pan interactions for the 3D camera.
//
// It does not depend on any input system.
type Orbit struct {
	Target Vec3
	Yaw    float64
	Pitch  float64
	Radius float64

	MinRadius float64
	MaxRadius float64
}

func (o *Orbit) Apply(cam *Camera) {
	if cam == nil {
		return
	}
	r := o.Radius
	if r == 0 {
		r = 30
	}
	if o.MinRadius != 0 && r < o.MinRadius {
		r = o.MinRadius
	}
	if o.MaxRadius != 0 && r > o.MaxRadius {
		r = o.MaxRadius
	}

	q := QuatAxisAngle(V3(0, 1, 0), o.Yaw).Mul(QuatAxisAngle(V3(1, 0, 0), o.Pitch))
	p := q.Rotate(V3(0, 0, r))

	cam.Position = o.Target.Add(p)
	cam.Target = o.Target
	if cam.Up == (Vec3{}) {
		cam.Up = V3(0, 1, 0)
	}
}

func (o *Orbit) Rotate(deltaYaw, deltaPitch float64) {
	o.Yaw += deltaYaw
	o.Pitch += deltaPitch
	limit := math.Pi/2 - 0.01
	if o.Pitch > limit {
		o.Pitch = limit
	}
	if o.Pitch < -limit {
		o.Pitch = -limit
	}
}

func (o *Orbit) Zoom(delta float64) {
	o.Radius += delta
	if o.MinRadius != 0 && o.Radius < o.MinRadius {
		o.Radius = o.MinRadius
	}
	if o.MaxRadius != 0 && o.Radius > o.MaxRadius {
		o.Radius = o.MaxRadius
	}
}

// Pan moves the orbit target in the camera plane.
func (o *Orbit) Pan(cam Camera, dx, dy float64) {
	f := Normalize(cam.Target.Sub(cam.Position))
	up := cam.Up
	if up == (Vec3{}) {
		up = V3(0, 1, 0)
	}
	right := Normalize(Cross(f, up))
	u := Cross(right, f)
	o.Target = o.Target.Add(right.Mul(dx)).Add(u.Mul(dy))
}
