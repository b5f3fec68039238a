package showroom

import (
	"math"

	"showroom/internal/effects"
)

// Node is a transform group holding sprites. It implements effects.Scene,
// so effects attach their sprites in node-local coordinates and the
// renderer sees them in world space.
type Node struct {
	Offset effects.Vec3
	Yaw    float64 // rotation about +Y, radians
	Scale  float64

	sprites []*effects.Sprite
	index   map[*effects.Sprite]int
}

func NewNode(offset effects.Vec3) *Node {
	return &Node{Offset: offset, Scale: 1, index: make(map[*effects.Sprite]int)}
}

// Attach adds s. Attaching a sprite twice is a no-op.
func (n *Node) Attach(s *effects.Sprite) {
	if s == nil {
		return
	}
	if _, ok := n.index[s]; ok {
		return
	}
	n.index[s] = len(n.sprites)
	n.sprites = append(n.sprites, s)
}

// Detach removes s, swapping the last sprite into its slot.
func (n *Node) Detach(s *effects.Sprite) {
	i, ok := n.index[s]
	if !ok {
		return
	}
	last := len(n.sprites) - 1
	moved := n.sprites[last]
	n.sprites[i] = moved
	n.index[moved] = i
	n.sprites[last] = nil
	n.sprites = n.sprites[:last]
	delete(n.index, s)
}

func (n *Node) Len() int { return len(n.sprites) }

func (n *Node) Sprites() []*effects.Sprite { return n.sprites }

// World maps a node-local point to world space.
func (n *Node) World(p effects.Vec3) effects.Vec3 {
	p = p.Scale(n.Scale)
	if n.Yaw != 0 {
		s, c := math.Sincos(n.Yaw)
		p = effects.Vec3{X: c*p.X + s*p.Z, Y: p.Y, Z: -s*p.X + c*p.Z}
	}
	return p.Add(n.Offset)
}

// Append packs the node's visible sprites with the given blend into buf.
func (n *Node) Append(buf []float32, blend effects.Blend) []float32 {
	for _, s := range n.sprites {
		if s.Blend != blend || s.Opacity <= 0 || s.Scale <= 0 {
			continue
		}
		w := n.World(s.Pos)
		c := s.Color
		a := s.Opacity
		if blend == effects.BlendAdditive {
			// Glow is premultiplied; brightness rides on the colour.
			c = c.Mul(a)
			a = 1
		}
		buf = append(buf,
			float32(w.X), float32(w.Y), float32(w.Z),
			float32(s.Scale*n.Scale),
			float32(c.R), float32(c.G), float32(c.B), float32(math.Min(a, 1)),
		)
	}
	return buf
}
