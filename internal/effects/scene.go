// Package effects animates the showroom's exhaust smoke and the
// camera-flash bursts that fire while the engine revs.
//
// Effects never draw anything themselves. They attach sprites to a Scene
// supplied by the host and mutate them every frame; the host's renderer
// draws whatever is attached.
package effects

// Vec3 is a position or velocity in scene units.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

// Color is a linear RGB colour. Components may exceed 1 for additive glow.
type Color struct {
	R, G, B float64
}

func (c Color) Mul(k float64) Color { return Color{c.R * k, c.G * k, c.B * k} }

// Blend selects how a sprite combines with what is behind it.
type Blend uint8

const (
	BlendAlpha Blend = iota
	BlendAdditive
)

// Sprite is a camera-facing quad owned by an effect.
type Sprite struct {
	Pos     Vec3
	Scale   float64
	Color   Color
	Opacity float64
	Blend   Blend
}

// Scene holds the transient sprites the host renders.
type Scene interface {
	Attach(s *Sprite)
	Detach(s *Sprite)
}
