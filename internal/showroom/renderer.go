package showroom

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"showroom/internal/effects"
)

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

type Renderer struct {
	// Background gradient.
	bgProg    uint32
	quadVAO   uint32
	quadVBO   uint32
	bgUTop    int32
	bgUBottom int32

	// Point sprites. Puffs and glow share the VAO.
	puffProg  uint32
	glowProg  uint32
	spriteVAO uint32
	spriteVBO uint32

	puffUViewProj   int32
	puffUPixelScale int32
	glowUViewProj   int32
	glowUPixelScale int32
}

func NewRenderer() (*Renderer, error) {
	bgProg, err := linkProgram(backgroundVertSrc, backgroundFragSrc)
	if err != nil {
		return nil, fmt.Errorf("background program: %w", err)
	}
	puffProg, err := linkProgram(spriteVertSrc, puffFragSrc)
	if err != nil {
		gl.DeleteProgram(bgProg)
		return nil, fmt.Errorf("puff program: %w", err)
	}
	glowProg, err := linkProgram(spriteVertSrc, glowFragSrc)
	if err != nil {
		gl.DeleteProgram(bgProg)
		gl.DeleteProgram(puffProg)
		return nil, fmt.Errorf("glow program: %w", err)
	}

	r := &Renderer{bgProg: bgProg, puffProg: puffProg, glowProg: glowProg}

	// Quad VAO/VBO: a unit quad (6 vertices, 2 triangles).
	var qVAO, qVBO uint32
	gl.GenVertexArrays(1, &qVAO)
	gl.GenBuffers(1, &qVBO)
	gl.BindVertexArray(qVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, qVBO)
	quadVerts := [12]float32{
		0, 0, 1, 0, 1, 1,
		0, 0, 1, 1, 0, 1,
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVerts)*4, gl.Ptr(&quadVerts[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, glOffset(0))
	r.quadVAO = qVAO
	r.quadVBO = qVBO

	gl.UseProgram(bgProg)
	r.bgUTop = gl.GetUniformLocation(bgProg, gl.Str("uTop\x00"))
	r.bgUBottom = gl.GetUniformLocation(bgProg, gl.Str("uBottom\x00"))

	// Sprite VAO/VBO: streaming buffer, SpriteFloats per sprite.
	var sVAO, sVBO uint32
	gl.GenVertexArrays(1, &sVAO)
	gl.GenBuffers(1, &sVBO)
	gl.BindVertexArray(sVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, sVBO)

	stride := int32(SpriteFloats * 4)
	gl.BufferData(gl.ARRAY_BUFFER, MaxSpriteRender*int(stride), nil, gl.STREAM_DRAW)
	// aWorldPos (vec3)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, glOffset(0))
	// aSize (float)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, stride, glOffset(3*4))
	// aColor (vec4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, glOffset(4*4))
	r.spriteVAO = sVAO
	r.spriteVBO = sVBO

	r.puffUViewProj = gl.GetUniformLocation(puffProg, gl.Str("uViewProj\x00"))
	r.puffUPixelScale = gl.GetUniformLocation(puffProg, gl.Str("uPixelScale\x00"))
	r.glowUViewProj = gl.GetUniformLocation(glowProg, gl.Str("uViewProj\x00"))
	r.glowUPixelScale = gl.GetUniformLocation(glowProg, gl.Str("uPixelScale\x00"))

	gl.BindVertexArray(0)
	return r, nil
}

func (r *Renderer) Destroy() {
	for _, id := range []uint32{r.quadVBO, r.spriteVBO} {
		if id != 0 {
			gl.DeleteBuffers(1, &id)
		}
	}
	for _, id := range []uint32{r.quadVAO, r.spriteVAO} {
		if id != 0 {
			gl.DeleteVertexArrays(1, &id)
		}
	}
	for _, id := range []uint32{r.bgProg, r.puffProg, r.glowProg} {
		if id != 0 {
			gl.DeleteProgram(id)
		}
	}
}

// BeginFrame clears and paints the background gradient.
func (r *Renderer) BeginFrame(fbW, fbH int, top, bottom effects.Color) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(r.bgProg)
	gl.BindVertexArray(r.quadVAO)
	gl.Uniform3f(r.bgUTop, float32(top.R), float32(top.G), float32(top.B))
	gl.Uniform3f(r.bgUBottom, float32(bottom.R), float32(bottom.G), float32(bottom.B))
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

// PixelScale converts a world-unit sprite size at unit depth to pixels for
// a framebuffer fbH pixels tall.
func PixelScale(fovDeg float64, fbH int) float32 {
	half := fovDeg * math.Pi / 360
	return float32(float64(fbH) / (2 * math.Tan(half)))
}

// DrawSprites renders packed sprites, SpriteFloats per sprite.
// additive selects the glow program; otherwise soft alpha puffs.
func (r *Renderer) DrawSprites(buf []float32, viewProj mgl32.Mat4, pixelScale float32, additive bool) {
	if len(buf) == 0 {
		return
	}
	count := len(buf) / SpriteFloats
	if count > MaxSpriteRender {
		count = MaxSpriteRender
	}

	prog, uVP, uPS := r.puffProg, r.puffUViewProj, r.puffUPixelScale
	if additive {
		prog, uVP, uPS = r.glowProg, r.glowUViewProj, r.glowUPixelScale
	}
	gl.UseProgram(prog)
	gl.BindVertexArray(r.spriteVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.spriteVBO)
	gl.UniformMatrix4fv(uVP, 1, false, &viewProj[0])
	gl.Uniform1f(uPS, pixelScale)

	gl.Enable(gl.BLEND)
	if additive {
		gl.BlendFunc(gl.ONE, gl.ONE)
	} else {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}

	gl.BufferData(gl.ARRAY_BUFFER, count*SpriteFloats*4, gl.Ptr(buf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.POINTS, 0, int32(count))

	gl.Disable(gl.BLEND)
}
