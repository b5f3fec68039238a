package showroom

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Background vertex shader: full-screen quad from a 0..1 VBO.
const backgroundVertSrc = `#version 410 core

layout(location = 0) in vec2 aPos;

out vec2 vUV;

void main() {
    vUV = aPos;
    gl_Position = vec4(aPos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

// Background fragment shader: vertical gradient, a blue floor under a grey top.
const backgroundFragSrc = `#version 410 core

uniform vec3 uTop;
uniform vec3 uBottom;

in vec2 vUV;
out vec4 FragColor;

void main() {
    float k = smoothstep(0.0, 0.7, vUV.y);
    FragColor = vec4(mix(uBottom, uTop, k), 1.0);
}
` + "\x00"

// Sprite vertex shader: world-space point sprites sized by perspective.
const spriteVertSrc = `#version 410 core

layout(location = 0) in vec3 aWorldPos;
layout(location = 1) in float aSize;
layout(location = 2) in vec4 aColor;

uniform mat4 uViewProj;
uniform float uPixelScale;

out vec4 vColor;

void main() {
    gl_Position = uViewProj * vec4(aWorldPos, 1.0);
    float w = max(gl_Position.w, 0.001);
    gl_PointSize = clamp(aSize * uPixelScale / w, 1.0, 512.0);
    vColor = aColor;
}
` + "\x00"

// Puff fragment shader: soft-edged disc for smoke and the car body.
const puffFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    float dist = length(gl_PointCoord - vec2(0.5)) * 2.0;
    float a = vColor.a * (1.0 - smoothstep(0.55, 1.0, dist));
    if (a < 0.01) discard;
    FragColor = vec4(vColor.rgb, a);
}
` + "\x00"

// Glow fragment shader: additive radial falloff for light sprites.
// vColor.rgb should be pre-multiplied by desired brightness.
const glowFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    float dist = length(gl_PointCoord - vec2(0.5)) * 2.0;
    float falloff = clamp(1.0 - dist, 0.0, 1.0);
    falloff = falloff * falloff;
    FragColor = vec4(vColor.rgb * falloff, 1.0);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(buf))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(buf, "\x00"))
	}
	return shader, nil
}

func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vs, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(buf))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(buf, "\x00"))
	}
	return program, nil
}
