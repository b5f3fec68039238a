package showroom

import "showroom/internal/effects"

// The car is drawn as a cluster of soft sprites in car-local space: body
// shell, cabin, wheels and tail lights.
var carShape = []struct {
	pos   effects.Vec3
	scale float64
	shade float64 // multiplies the body colour; 0 means a fixed colour
	fixed effects.Color
	glow  bool
}{
	// Body shell, front to rear.
	{pos: effects.Vec3{X: 1.9, Y: 0.35}, scale: 0.9, shade: 1},
	{pos: effects.Vec3{X: 1.2, Y: 0.4}, scale: 1.1, shade: 1},
	{pos: effects.Vec3{X: 0.4, Y: 0.45}, scale: 1.2, shade: 1},
	{pos: effects.Vec3{X: -0.4, Y: 0.45}, scale: 1.2, shade: 1},
	{pos: effects.Vec3{X: -1.2, Y: 0.42}, scale: 1.1, shade: 1},
	{pos: effects.Vec3{X: -1.9, Y: 0.4}, scale: 0.9, shade: 0.9},
	// Cabin.
	{pos: effects.Vec3{X: 0.2, Y: 0.85}, scale: 0.9, shade: 0.45},
	{pos: effects.Vec3{X: -0.6, Y: 0.85}, scale: 0.85, shade: 0.45},
	// Wheels.
	{pos: effects.Vec3{X: 1.35, Y: 0.05, Z: 0.7}, scale: 0.6, fixed: effects.Color{R: 0.05, G: 0.05, B: 0.06}},
	{pos: effects.Vec3{X: -1.35, Y: 0.05, Z: 0.7}, scale: 0.6, fixed: effects.Color{R: 0.05, G: 0.05, B: 0.06}},
	{pos: effects.Vec3{X: 1.35, Y: 0.05, Z: -0.7}, scale: 0.6, fixed: effects.Color{R: 0.05, G: 0.05, B: 0.06}},
	{pos: effects.Vec3{X: -1.35, Y: 0.05, Z: -0.7}, scale: 0.6, fixed: effects.Color{R: 0.05, G: 0.05, B: 0.06}},
	// Tail lights.
	{pos: effects.Vec3{X: -2.3, Y: 0.45, Z: 0.55}, scale: 0.35, fixed: effects.Color{R: 1, G: 0.1, B: 0.15}, glow: true},
	{pos: effects.Vec3{X: -2.3, Y: 0.45, Z: -0.55}, scale: 0.35, fixed: effects.Color{R: 1, G: 0.1, B: 0.15}, glow: true},
}

// NewCarNode builds the car silhouette placed and oriented in the showroom.
func NewCarNode(body effects.Color) *Node {
	n := NewNode(effects.Vec3{X: -0.5, Y: -0.18})
	n.Yaw = CarRotationY
	n.Scale = CarScale
	for _, p := range carShape {
		c := p.fixed
		if p.shade > 0 {
			c = body.Mul(p.shade)
		}
		s := &effects.Sprite{Pos: p.pos, Scale: p.scale, Color: c, Opacity: 1, Blend: effects.BlendAlpha}
		if p.glow {
			s.Blend = effects.BlendAdditive
			s.Opacity = 0.6
		}
		n.Attach(s)
	}
	return n
}

// SetTailLights sets the tail light brightness.
func SetTailLights(car *Node, level float64) {
	for _, s := range car.Sprites() {
		if s.Blend == effects.BlendAdditive {
			s.Opacity = level
		}
	}
}
