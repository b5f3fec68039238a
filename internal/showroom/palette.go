package showroom

import "showroom/internal/effects"

// Hex converts a 0xRRGGBB literal to a linear colour.
func Hex(rgb uint32) effects.Color {
	return effects.Color{
		R: float64(rgb>>16&0xff) / 255,
		G: float64(rgb>>8&0xff) / 255,
		B: float64(rgb&0xff) / 255,
	}
}

var Palette = struct {
	BackgroundBottom effects.Color
	Loading          effects.Color
	Strip            effects.Color
}{
	BackgroundBottom: Hex(0x0b1e3a),
	Loading:          Hex(0x111111),
	Strip:            Hex(0xffffff),
}
