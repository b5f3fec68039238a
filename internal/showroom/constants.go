package showroom

// Camera.
const (
	CameraNear = 0.1
	CameraFar  = 200.0

	BurstShakeTime = 0.18 // seconds of shake per flash burst
)

// Render.
const (
	MaxSpriteRender = 8192
	SpriteFloats    = 8    // x, y, z, size, r, g, b, a
)

// Car placement.
const (
	CarScale     = 1.6
	CarRotationY = 0.6283185307179586 // pi/5
)

// Lightformer strips.
const (
	StripCount    = 8
	StripHeight   = 4.0
	StripSpacing  = 4.0
	StripGroupYaw = 0.5
	StripWrapAt   = 20.0
	StripWrapTo   = -60.0
)

// TitleInterval is how often the window title is refreshed, in seconds.
const TitleInterval = 0.25
