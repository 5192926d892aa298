package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Lens holds the fixed camera parameters from the settings file.
type Lens struct {
	Distance float32
	Height   float32
	FOV      float32 // degrees, vertical
	Angle    float32 // degrees, yaw around the board
	Tilt     float32 // degrees, extra downward pitch of the view
}

const (
	nearPlane = 0.1
	farPlane  = 100
	maxPitch  = 80
)

// Camera is the orbit state. Yaw and Pitch only change in interactive builds.
type Camera struct {
	Lens  Lens
	Yaw   float32
	Pitch float32
}

// Orbit adds to yaw and pitch, clamping pitch short of the poles.
func (c *Camera) Orbit(dyaw, dpitch float32) {
	c.Yaw += dyaw
	c.Pitch = mgl32.Clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

// Zoom scales the orbit distance.
func (c *Camera) Zoom(factor float32) {
	c.Lens.Distance = mgl32.Clamp(c.Lens.Distance*factor, 4, 40)
	c.Lens.Height = mgl32.Clamp(c.Lens.Height*factor, 2, 40)
}

// Position is the eye point in world space.
func (c *Camera) Position() mgl32.Vec3 {
	eye := mgl32.Vec3{0, c.Lens.Height, -c.Lens.Distance}
	pitch := mgl32.Rotate3DX(mgl32.DegToRad(-c.Pitch))
	yaw := mgl32.Rotate3DY(mgl32.DegToRad(c.Lens.Angle + c.Yaw))
	return yaw.Mul3x1(pitch.Mul3x1(eye))
}

// View is the world-to-camera transform, looking at the board centre.
func (c *Camera) View() mgl32.Mat4 {
	look := mgl32.LookAtV(c.Position(), mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	return mgl32.HomogRotate3DX(mgl32.DegToRad(c.Lens.Tilt)).Mul4(look)
}

// Projection is a perspective projection with the target aspect ratio.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Lens.FOV), TargetAspect, nearPlane, farPlane)
}

// ViewProjection is Projection * View.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// ViewDirection is the normalised direction the camera looks along.
func (c *Camera) ViewDirection() mgl32.Vec3 {
	return mgl32.Vec3{0, 0, 0}.Sub(c.Position()).Normalize()
}
