package showroom

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"showroom/internal/audio"
	"showroom/internal/config"
	"showroom/internal/effects"
	"showroom/internal/logger"
)

// Run opens the window and blocks until it is closed.
func Run(cfg *config.Config, log *logger.Logger) error {
	runtime.LockOSThread()

	window, err := initWindow(cfg.Window)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}
	log.Infof("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	mixer, dev := openAudio(cfg.Audio, log.With("audio"))
	if dev != nil {
		defer dev.Close()
	}

	banks := make(chan *audio.Bank, 1)
	go func() {
		banks <- audio.LoadBank(cfg.Audio.Assets, mixer.SampleRate(), cfg.Audio.SynthesizeMissing, log.With("assets"))
	}()

	// GL state.
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	bg := cfg.Window.Background
	gl.ClearColor(float32(bg.R), float32(bg.G), float32(bg.B), 1.0)

	rend, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer rend.Destroy()

	app := NewApp(cfg, log.With("showroom"), mixer, dev, banks)
	defer app.Close()
	app.Bus().Subscribe(EventEngineStarted, func(e Event) { log.Infof("engine on at %.2fs", e.At) })
	app.Bus().Subscribe(EventEngineStopped, func(e Event) { log.Infof("engine off at %.2fs", e.At) })
	app.Bus().Subscribe(EventRevStart, func(e Event) { log.Debugf("rev at %.2fs", e.At) })

	input := NewInput()

	// Reusable render buffers.
	var alphaBuf, glowBuf, sortBuf []float32
	var order []int

	start := glfw.GetTime()
	last := start
	title := ""
	titleAt := 0.0
	for !window.ShouldClose() {
		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > cfg.Window.MaxFrameGap.Seconds() {
			dt = cfg.Window.MaxFrameGap.Seconds()
		}

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}
		if input.JustPressed(window, glfw.KeySpace) {
			app.Toggle()
		}
		if input.JustPressed(window, glfw.KeyR) {
			app.Rev()
		}

		app.Update(time.Duration((now-start)*float64(time.Second)), dt)

		if now-titleAt >= TitleInterval {
			titleAt = now
			if t := app.Title(); t != title {
				title = t
				window.SetTitle(t)
			}
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			continue
		}

		if app.Phase() == PhaseLoading {
			rend.BeginFrame(fbW, fbH, Palette.Loading, Palette.Loading)
			window.SwapBuffers()
			continue
		}

		rend.BeginFrame(fbW, fbH, cfg.Window.Background, Palette.BackgroundBottom)
		cam := &app.Camera
		viewProj := cam.ViewProj(float64(fbW) / float64(fbH))
		px := PixelScale(cam.FOV, fbH)

		alphaBuf = alphaBuf[:0]
		alphaBuf = app.Car.Append(alphaBuf, effects.BlendAlpha)
		alphaBuf = app.Exhaust.Append(alphaBuf, effects.BlendAlpha)
		alphaBuf, sortBuf, order = SortBackToFront(alphaBuf, sortBuf, order, cam.EffectivePos())

		glowBuf = glowBuf[:0]
		glowBuf = app.Strips.Node().Append(glowBuf, effects.BlendAdditive)
		glowBuf = app.Car.Append(glowBuf, effects.BlendAdditive)
		glowBuf = app.World.Append(glowBuf, effects.BlendAdditive)

		rend.DrawSprites(alphaBuf, viewProj, px, false)
		rend.DrawSprites(glowBuf, viewProj, px, true)

		window.SwapBuffers()
	}
	return nil
}

// openAudio builds the mixer and opens the configured output. Without a
// device the showroom runs silently.
func openAudio(cfg config.AudioConfig, log *logger.Logger) (*audio.Mixer, audio.Device) {
	mixer := audio.NewMixer(audio.SampleRate)
	mixer.SetMaster(cfg.Volume)
	if !cfg.Enabled {
		log.Infof("audio disabled")
		return mixer, nil
	}

	var (
		dev audio.Device
		err error
	)
	switch cfg.Backend {
	case "portaudio":
		dev, err = audio.NewPortAudioDevice(mixer, cfg.BufferFrames)
	default:
		dev, err = audio.NewOtoDevice(mixer, cfg.BufferFrames)
	}
	if err != nil {
		log.Warnf("audio init failed (continuing without sound): %v", err)
		return mixer, nil
	}
	log.Infof("audio output: %s, %d Hz", cfg.Backend, mixer.SampleRate())
	return mixer, dev
}
