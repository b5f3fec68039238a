package showroom

import "showroom/internal/effects"

// Strips are the lightformer bars that scroll past the car to suggest
// motion. Each bar is a short row of glow sprites.
type Strips struct {
	node  *Node
	speed float64
	bars  []strip
}

type strip struct {
	z    float64
	segs []*effects.Sprite
	xs   []float64
}

var stripX = [StripCount]float64{2, 0, 2, 0, 2, 0, 2, 0}

const (
	stripSegments = 5
	stripSegGap   = 0.6
	stripSegScale = 0.9
	stripGlow     = 0.35
)

func NewStrips(speed float64, color effects.Color) *Strips {
	st := &Strips{node: NewNode(effects.Vec3{}), speed: speed}
	st.node.Yaw = StripGroupYaw
	for i := 0; i < StripCount; i++ {
		b := strip{z: float64(i) * StripSpacing}
		for k := 0; k < stripSegments; k++ {
			x := stripX[i] + (float64(k)-float64(stripSegments-1)/2)*stripSegGap
			s := &effects.Sprite{
				Scale:   stripSegScale,
				Color:   color,
				Opacity: stripGlow,
				Blend:   effects.BlendAdditive,
			}
			b.segs = append(b.segs, s)
			b.xs = append(b.xs, x)
			st.node.Attach(s)
		}
		st.bars = append(st.bars, b)
	}
	st.place()
	return st
}

func (st *Strips) Node() *Node { return st.node }

// Z returns the current depth of bar i.
func (st *Strips) Z(i int) float64 { return st.bars[i].z }

// Update scrolls every bar by speed*dt, wrapping bars that pass the camera.
func (st *Strips) Update(dt float64) {
	for i := range st.bars {
		b := &st.bars[i]
		b.z += st.speed * dt
		if b.z > StripWrapAt {
			b.z = StripWrapTo
		}
	}
	st.place()
}

func (st *Strips) place() {
	for _, b := range st.bars {
		for k, s := range b.segs {
			s.Pos = effects.Vec3{X: b.xs[k], Y: StripHeight, Z: b.z}
		}
	}
}
