package effects

import "math"

// SmokeConfig tunes an exhaust emitter. Times are in milliseconds.
type SmokeConfig struct {
	ParticlesPerEmission int     `yaml:"particles_per_emission"`
	EmissionRate         float64 `yaml:"emission_rate_ms"`
	Lifetime             float64 `yaml:"lifetime_ms"`
	Color                Color   `yaml:"color"`
	Scale                float64 `yaml:"scale"`
}

const (
	smokeDragBase   = 0.95
	smokeDragPerMs  = 0.06
	smokeLifeJitter = 500.0 // ms added on top of the base lifetime
	smokeFadeIn     = 0.2   // life fraction spent fading in
)

// Particle is one puff of smoke. Position is local to the emitter.
type Particle struct {
	Pos, Vel   Vec3
	Age        float64 // ms
	Lifetime   float64 // ms
	StartScale float64
	FinalScale float64
	Sprite     *Sprite
}

// Emitter spawns smoke at its origin on a fixed emission clock while
// active, and ages, drifts and retires the puffs every frame. Live
// particles are kept dense; retirement swaps the last one into the hole.
type Emitter struct {
	cfg   SmokeConfig
	scene Scene
	rng   Source

	active       bool
	lastEmission float64
	particles    []Particle
}

func NewEmitter(cfg SmokeConfig, scene Scene, rng Source) *Emitter {
	if rng == nil {
		rng = NewRand(1)
	}
	return &Emitter{cfg: cfg, scene: scene, rng: rng}
}

func (e *Emitter) SetActive(on bool) { e.active = on }
func (e *Emitter) Active() bool      { return e.active }

// Len is the number of live particles.
func (e *Emitter) Len() int { return len(e.particles) }

// Particles exposes the live particles. The slice is only valid until the
// next Update.
func (e *Emitter) Particles() []Particle { return e.particles }

// Update emits if due and advances every particle by deltaMs. elapsedMs is
// the host's frame clock.
func (e *Emitter) Update(elapsedMs, deltaMs float64) {
	if e.active && elapsedMs-e.lastEmission >= e.cfg.EmissionRate {
		e.lastEmission = elapsedMs
		for i := 0; i < e.cfg.ParticlesPerEmission; i++ {
			e.spawn()
		}
	}

	drag := math.Pow(smokeDragBase, deltaMs*smokeDragPerMs)
	dt := deltaMs * 0.001
	for i := 0; i < len(e.particles); {
		p := &e.particles[i]
		p.Pos = p.Pos.Add(p.Vel.Scale(dt))
		p.Age += deltaMs
		p.Vel = p.Vel.Scale(drag)

		if p.Age >= p.Lifetime {
			e.retire(i)
			continue
		}

		life := p.Age / p.Lifetime
		p.Sprite.Pos = p.Pos
		p.Sprite.Scale = p.StartScale + life*(p.FinalScale-p.StartScale)
		p.Sprite.Opacity = SmokeOpacity(life)
		i++
	}
}

// Clear retires every live particle.
func (e *Emitter) Clear() {
	for len(e.particles) > 0 {
		e.retire(len(e.particles) - 1)
	}
}

// SmokeOpacity is the opacity of a puff at the given fraction of its life:
// a quick fade in, then a long linear fade out.
func SmokeOpacity(life float64) float64 {
	var a float64
	if life < smokeFadeIn {
		a = life * 3.5
	} else {
		a = (1 - life) * 0.875
	}
	return math.Max(0, a)
}

func (e *Emitter) spawn() {
	r := e.rng
	p := Particle{
		Pos: Vec3{
			X: centered(r, 0.2),
			Y: uniform(r, 0, 0.1),
			Z: centered(r, 0.2),
		},
		Vel: Vec3{
			X: centered(r, 2),
			Y: uniform(r, 1, 3),
			Z: centered(r, 1),
		},
		Lifetime:   e.cfg.Lifetime + uniform(r, 0, smokeLifeJitter),
		StartScale: uniform(r, 0.15, 0.45) * e.cfg.Scale,
	}
	p.FinalScale = p.StartScale + uniform(r, 0.4, 1.0)*e.cfg.Scale
	p.Sprite = &Sprite{
		Pos:   p.Pos,
		Scale: p.StartScale,
		Color: e.cfg.Color,
		Blend: BlendAlpha,
	}
	e.particles = append(e.particles, p)
	if e.scene != nil {
		e.scene.Attach(p.Sprite)
	}
}

func (e *Emitter) retire(i int) {
	last := len(e.particles) - 1
	if e.scene != nil {
		e.scene.Detach(e.particles[i].Sprite)
	}
	e.particles[i] = e.particles[last]
	e.particles[last] = Particle{}
	e.particles = e.particles[:last]
}
