package showroom

import (
	"github.com/go-gl/mathgl/mgl32"

	"showroom/internal/config"
	"showroom/internal/effects"
)

// Camera is a fixed perspective camera with a decaying shake.
type Camera struct {
	Pos, Target effects.Vec3
	FOV         float64 // vertical, degrees
	Near, Far   float64

	// Screen shake, in scene units.
	ShakeX, ShakeY float64
	ShakeTimer     float64 // remaining shake time, seconds
	ShakeIntensity float64
	ShakeMax       float64
}

func NewCamera(cfg config.CameraConfig) Camera {
	return Camera{
		Pos:      cfg.Position,
		Target:   cfg.Target,
		FOV:      cfg.FOV,
		Near:     CameraNear,
		Far:      CameraFar,
		ShakeMax: cfg.ShakeMax,
	}
}

// AddShake triggers shake with given intensity and duration. Repeated calls
// stack intensity up to ShakeMax.
func (c *Camera) AddShake(intensity, duration float64) {
	c.ShakeIntensity += intensity
	if c.ShakeMax > 0 && c.ShakeIntensity > c.ShakeMax {
		c.ShakeIntensity = c.ShakeMax
	}
	if duration > c.ShakeTimer {
		c.ShakeTimer = duration
	}
}

// UpdateShake decays shake and computes random offsets.
func (c *Camera) UpdateShake(dt float64, seed uint64) {
	if c.ShakeTimer <= 0 {
		c.ShakeX = 0
		c.ShakeY = 0
		c.ShakeIntensity = 0
		return
	}
	c.ShakeTimer -= dt
	if c.ShakeTimer < 0 {
		c.ShakeTimer = 0
	}
	t := c.ShakeTimer
	rr := effects.NewRand(seed ^ uint64(t*10000))
	mag := c.ShakeIntensity * (t / (t + 0.08))
	c.ShakeX = (rr.Float64()*2 - 1) * mag
	c.ShakeY = (rr.Float64()*2 - 1) * mag
}

// EffectivePos returns camera position with shake applied.
func (c *Camera) EffectivePos() effects.Vec3 {
	return c.Pos.Add(effects.Vec3{X: c.ShakeX, Y: c.ShakeY})
}

// ViewProj is the combined view-projection matrix for a framebuffer of the
// given aspect ratio. The shake moves the eye and the target together.
func (c *Camera) ViewProj(aspect float64) mgl32.Mat4 {
	eye := c.EffectivePos()
	target := c.Target.Add(effects.Vec3{X: c.ShakeX, Y: c.ShakeY})
	proj := mgl32.Perspective(mgl32.DegToRad(float32(c.FOV)), float32(aspect), float32(c.Near), float32(c.Far))
	view := mgl32.LookAtV(vec3(eye), vec3(target), mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}

func vec3(v effects.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
