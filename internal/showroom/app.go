// Package showroom is the desktop host: it owns the window, maps keys to
// engine operations, and drives the audio sequencer, the smoke emitter and
// the rev flashes from one render loop.
package showroom

import (
	"fmt"
	"time"

	"showroom/internal/audio"
	"showroom/internal/config"
	"showroom/internal/effects"
	"showroom/internal/logger"
)

// Logger is the subset of the project logger the host uses.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseClosed
)

// App is the window-independent part of the showroom. Run feeds it input
// and time; tests drive it directly.
type App struct {
	cfg *config.Config
	log Logger
	bus *EventBus

	graph audio.Graph
	dev   audio.Device
	banks <-chan *audio.Bank
	bank  *audio.Bank
	seq   *audio.Sequencer

	phase   Phase
	wall    float64 // seconds, unclamped
	elapsed float64 // seconds, sum of clamped frame deltas
	revving bool

	World   *Node
	Exhaust *Node
	Car     *Node
	Strips  *Strips
	Camera  Camera
	Smoke   *effects.Emitter
	Flashes []*effects.Flash

	seed uint64
}

// NewApp builds the scene. The sound bank arrives on banks once decoded;
// until then and for at least the configured loading time the app stays in
// PhaseLoading.
func NewApp(cfg *config.Config, log Logger, g audio.Graph, dev audio.Device, banks <-chan *audio.Bank) *App {
	if log == nil {
		log = logger.Nop{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	a := &App{
		cfg:     cfg,
		log:     log,
		bus:     NewEventBus(),
		graph:   g,
		dev:     dev,
		banks:   banks,
		World:   NewNode(effects.Vec3{}),
		Exhaust: NewNode(cfg.Smoke.Position),
		Car:     NewCarNode(cfg.Window.CarColor),
		Strips:  NewStrips(cfg.Camera.StripSpeed, Palette.Strip),
		Camera:  NewCamera(cfg.Camera),
		seed:    seed,
	}
	a.Smoke = effects.NewEmitter(cfg.Smoke.SmokeConfig, a.Exhaust, effects.NewRand(effects.Derive(seed, 1)))
	for i, fc := range cfg.Flash.Emitters {
		f := effects.NewFlash(fc, a.World, effects.NewRand(effects.Derive(seed, uint64(2+i))))
		idx := i
		f.OnBurst = func() { a.bus.Emit(Event{Type: EventBurst, At: a.wall, Data: idx}) }
		a.Flashes = append(a.Flashes, f)
	}

	a.bus.Subscribe(EventBurst, func(Event) {
		a.Camera.AddShake(cfg.Camera.ShakeBurst, BurstShakeTime)
	})
	a.bus.Subscribe(EventRevStart, func(Event) { a.setRevving(true) })
	a.bus.Subscribe(EventRevEnd, func(Event) { a.setRevving(false) })
	a.bus.Subscribe(EventReady, func(e Event) {
		a.log.Infof("showroom ready after %.2fs", e.At)
	})
	return a
}

func (a *App) Bus() *EventBus   { return a.bus }
func (a *App) Phase() Phase     { return a.phase }
func (a *App) Revving() bool    { return a.revving }
func (a *App) Elapsed() float64 { return a.elapsed }

// Sequencer is nil while loading.
func (a *App) Sequencer() *audio.Sequencer { return a.seq }

// Running reports whether the engine is on.
func (a *App) Running() bool {
	return a.seq != nil && a.seq.State().Running
}

// Toggle starts the engine when it is off and stops it when it is on.
func (a *App) Toggle() {
	if a.phase != PhaseReady {
		return
	}
	if a.Running() {
		a.seq.Stop()
		a.bus.Emit(Event{Type: EventEngineStopped, At: a.wall})
		return
	}
	a.seq.Start()
	if a.Running() {
		a.bus.Emit(Event{Type: EventEngineStarted, At: a.wall})
	}
}

// Rev revs the engine if it is running and not already revving.
func (a *App) Rev() {
	if a.phase != PhaseReady || !a.Running() || a.revving {
		return
	}
	a.seq.Rev(
		func() { a.bus.Emit(Event{Type: EventRevStart, At: a.wall}) },
		func() { a.bus.Emit(Event{Type: EventRevEnd, At: a.wall}) },
	)
}

func (a *App) setRevving(on bool) {
	a.revving = on
	for _, f := range a.Flashes {
		f.SetActive(on)
	}
}

// Update advances the app by one frame. wall is the unclamped time since
// the window opened and drives the audio sequencer's timers; dt is the
// clamped frame delta that drives the animation.
func (a *App) Update(wall time.Duration, dt float64) {
	if a.phase == PhaseClosed {
		return
	}
	a.wall = wall.Seconds()
	a.elapsed += dt
	if a.phase == PhaseLoading {
		a.pollLoading()
	}
	if a.seq != nil {
		a.seq.Advance(wall)
	}

	elapsedMs := a.elapsed * 1000
	deltaMs := dt * 1000
	a.Smoke.SetActive(a.Running())
	a.Smoke.Update(elapsedMs, deltaMs)
	for _, f := range a.Flashes {
		f.Update(elapsedMs, deltaMs)
	}
	a.Strips.Update(dt)
	if a.Running() {
		SetTailLights(a.Car, 0.6)
	} else {
		SetTailLights(a.Car, 0.15)
	}
	a.Camera.UpdateShake(dt, a.seed)
}

func (a *App) pollLoading() {
	if a.bank == nil {
		select {
		case b, ok := <-a.banks:
			if !ok {
				b = audio.NewBank()
			}
			a.bank = b
		default:
		}
	}
	if a.bank == nil || a.wall < a.cfg.Window.MinLoading.Seconds() {
		return
	}
	for _, k := range audio.Kinds() {
		if !a.bank.Has(k) {
			a.log.Warnf("%s sound unavailable", k)
		}
	}
	a.seq = audio.NewSequencer(a.graph, a.dev, a.bank, a.cfg.Audio.Sequencer, a.log)
	a.phase = PhaseReady
	a.bus.Emit(Event{Type: EventReady, At: a.wall})
}

// Title is the window title for the current state.
func (a *App) Title() string {
	base := a.cfg.Window.Title
	switch {
	case a.phase == PhaseLoading:
		return base + " - loading..."
	case a.phase == PhaseClosed:
		return base
	case a.revving:
		return fmt.Sprintf("%s - revving [R rev, Space stop]", base)
	case a.Running():
		return fmt.Sprintf("%s - running [R rev, Space stop]", base)
	}
	return fmt.Sprintf("%s - [Space start]", base)
}

// Close shuts the engine down and removes every transient sprite.
func (a *App) Close() {
	if a.phase == PhaseClosed {
		return
	}
	if a.seq != nil {
		a.seq.Cleanup()
	}
	a.Smoke.Clear()
	for _, f := range a.Flashes {
		f.Close()
	}
	a.revving = false
	a.phase = PhaseClosed
}
