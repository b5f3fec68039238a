package showroom

import "github.com/go-gl/glfw/v3.3/glfw"

// Input turns key levels into edge-triggered presses.
type Input struct {
	prevKeys map[glfw.Key]bool
}

func NewInput() *Input {
	return &Input{prevKeys: make(map[glfw.Key]bool)}
}

func (in *Input) JustPressed(window *glfw.Window, key glfw.Key) bool {
	return in.edge(key, window.GetKey(key) == glfw.Press)
}

func (in *Input) edge(key glfw.Key, down bool) bool {
	jp := down && !in.prevKeys[key]
	in.prevKeys[key] = down
	return jp
}
