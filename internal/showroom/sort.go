package showroom

import (
	"slices"

	"showroom/internal/effects"
)

// SortBackToFront copies the packed sprites in buf into scratch, farthest
// from eye first. It returns the sorted buffer, then buf for reuse as the
// next frame's scratch, then the index slice.
func SortBackToFront(buf, scratch []float32, order []int, eye effects.Vec3) ([]float32, []float32, []int) {
	n := len(buf) / SpriteFloats
	order = order[:0]
	for i := 0; i < n; i++ {
		order = append(order, i)
	}
	dist := func(i int) float64 {
		dx := float64(buf[i*SpriteFloats]) - eye.X
		dy := float64(buf[i*SpriteFloats+1]) - eye.Y
		dz := float64(buf[i*SpriteFloats+2]) - eye.Z
		return dx*dx + dy*dy + dz*dz
	}
	slices.SortStableFunc(order, func(a, b int) int {
		da, db := dist(a), dist(b)
		switch {
		case da > db:
			return -1
		case da < db:
			return 1
		}
		return 0
	})
	scratch = scratch[:0]
	for _, i := range order {
		scratch = append(scratch, buf[i*SpriteFloats:(i+1)*SpriteFloats]...)
	}
	return scratch, buf, order
}
