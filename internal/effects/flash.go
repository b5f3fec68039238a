package effects

import (
	"time"

	"showroom/internal/timer"
)

// Pattern is the shape of one rev-flash sequence.
type Pattern int

const (
	PatternNone Pattern = iota
	PatternSingle
	PatternShort
	PatternLong
	PatternExtended
	numPatterns
)

var patternNames = [numPatterns]string{"none", "single", "short", "long", "extended"}

func (p Pattern) String() string {
	if p < 0 || p >= numPatterns {
		return "unknown"
	}
	return patternNames[p]
}

var patternWeights = [numPatterns]float64{0.15, 0.25, 0.35, 0.20, 0.05}

type patternTiming struct {
	minCount, maxCount int
	minBase, maxBase   float64 // ms between attempts
	variation          float64 // ms, applied as +-variation/2
}

var patternTimings = [numPatterns]patternTiming{
	PatternSingle:   {minCount: 1, maxCount: 1},
	PatternShort:    {minCount: 2, maxCount: 3, minBase: 60, maxBase: 100, variation: 30},
	PatternLong:     {minCount: 4, maxCount: 6, minBase: 80, maxBase: 140, variation: 50},
	PatternExtended: {minCount: 7, maxCount: 10, minBase: 40, maxBase: 70, variation: 40},
}

const (
	minFlashDelay  = 30.0 // ms
	flashSkipPct   = 0.1
	flashHold      = 30.0 // ms at full brightness
	flashFade      = 80.0 // ms linear fade after the hold
	minPatternGap  = 800.0
	patternGapSpan = 1500.0
)

// DrawPattern picks a pattern by weight.
func DrawPattern(r Source) Pattern {
	x := r.Float64()
	cum := 0.0
	for p, w := range patternWeights {
		cum += w
		if x <= cum {
			return Pattern(p)
		}
	}
	return PatternShort
}

// Attempt is one planned burst. Delay is measured from the previous
// attempt; the first attempt fires immediately. A skipped attempt keeps its
// slot in time but does not flash.
type Attempt struct {
	Delay time.Duration
	Skip  bool
}

// PlanSequence lays out the attempts for p.
func PlanSequence(p Pattern, r Source) []Attempt {
	if p <= PatternNone || p >= numPatterns {
		return nil
	}
	tm := patternTimings[p]
	n := between(r, tm.minCount, tm.maxCount)
	base := uniform(r, tm.minBase, tm.maxBase)

	out := make([]Attempt, n)
	for i := range out {
		out[i].Skip = r.Float64() < flashSkipPct
		if i == 0 || p == PatternSingle {
			continue
		}
		d := base + centered(r, tm.variation)
		if d < minFlashDelay {
			d = minFlashDelay
		}
		out[i].Delay = msDuration(d)
	}
	return out
}

// FlashConfig places one flash emitter.
type FlashConfig struct {
	Position  Vec3    `yaml:"position"`
	Color     Color   `yaml:"color"`
	Intensity float64 `yaml:"intensity"`
}

// The four concentric layers of a burst, brightest and smallest first.
var flashLayers = [4]struct {
	peak, scale, tint, depth float64
}{
	{peak: 1.0, scale: 0.6, tint: 3.0, depth: 0.1},
	{peak: 0.9, scale: 1.2, tint: 2.0, depth: 0.05},
	{peak: 0.7, scale: 2.0, tint: 1.5, depth: 0},
	{peak: 0.5, scale: 3.5, tint: 1.0, depth: -0.05},
}

// Flash fires randomized burst patterns while active. Bursts are timed on
// the flash's own timer queue, which is advanced by Update, and faded per
// frame.
type Flash struct {
	cfg    FlashConfig
	scene  Scene
	rng    Source
	timers *timer.Queue

	layers [4]*Sprite
	active bool
	seq    timer.Handle

	bursting bool
	age      float64 // ms since the last burst
	bursts   int

	// OnBurst, if set, runs every time a burst lights up.
	OnBurst func()
}

// NewFlash attaches the burst layers, dark, to scene.
func NewFlash(cfg FlashConfig, scene Scene, rng Source) *Flash {
	if rng == nil {
		rng = NewRand(1)
	}
	f := &Flash{cfg: cfg, scene: scene, rng: rng, timers: timer.NewQueue()}
	for i, l := range flashLayers {
		f.layers[i] = &Sprite{
			Pos:   cfg.Position.Add(Vec3{Z: l.depth}),
			Scale: l.scale,
			Color: cfg.Color.Mul(l.tint),
			Blend: BlendAdditive,
		}
		if scene != nil {
			scene.Attach(f.layers[i])
		}
	}
	return f
}

func (f *Flash) Active() bool { return f.active }

// Bursts counts the bursts fired so far.
func (f *Flash) Bursts() int { return f.bursts }

// Layers returns the burst sprites, brightest first.
func (f *Flash) Layers() []*Sprite { return f.layers[:] }

// SetActive mirrors an external flag, e.g. the engine's revving state.
func (f *Flash) SetActive(on bool) {
	if on {
		f.Activate()
	} else {
		f.Deactivate()
	}
}

// Activate starts the pattern loop: one pattern now, then another after a
// random 800-2300 ms gap, for as long as the flash stays active.
func (f *Flash) Activate() {
	if f.active {
		return
	}
	f.active = true
	f.bursting = false
	f.setOpacity(0)
	f.runPattern()
}

// Deactivate stops scheduling. A burst already fading finishes on its own.
func (f *Flash) Deactivate() {
	if !f.active {
		return
	}
	f.active = false
	f.timers.CancelAll()
	f.seq = timer.Handle{}
}

// Update fades the current burst by deltaMs and then runs any pattern or
// burst timers due at elapsedMs.
func (f *Flash) Update(elapsedMs, deltaMs float64) {
	if f.bursting {
		f.age += deltaMs
		f.fade()
	}
	f.timers.Advance(msDuration(elapsedMs))
}

// Close stops the flash and removes its layers from the scene.
func (f *Flash) Close() {
	f.Deactivate()
	if f.scene != nil {
		for _, s := range f.layers {
			f.scene.Detach(s)
		}
	}
}

func (f *Flash) runPattern() {
	if !f.active {
		return
	}
	f.timers.Cancel(f.seq)
	f.seq = timer.Handle{}
	f.runAttempts(PlanSequence(DrawPattern(f.rng), f.rng))

	gap := uniform(f.rng, minPatternGap, minPatternGap+patternGapSpan)
	f.timers.After(msDuration(gap), f.runPattern)
}

func (f *Flash) runAttempts(steps []Attempt) {
	if len(steps) == 0 || !f.active {
		return
	}
	if !steps[0].Skip {
		f.burst()
	}
	rest := steps[1:]
	if len(rest) == 0 {
		f.seq = timer.Handle{}
		return
	}
	f.seq = f.timers.After(rest[0].Delay, func() { f.runAttempts(rest) })
}

func (f *Flash) burst() {
	jitter := uniform(f.rng, 0.8, 1.2)
	for i, l := range flashLayers {
		f.layers[i].Scale = l.scale * jitter
	}
	f.bursting = true
	f.age = 0
	f.setOpacity(1)
	f.bursts++
	if f.OnBurst != nil {
		f.OnBurst()
	}
}

func (f *Flash) fade() {
	if f.age <= flashHold {
		f.setOpacity(1)
		return
	}
	k := 1 - (f.age-flashHold)/flashFade
	if k <= 0 {
		k = 0
		f.bursting = false
	}
	f.setOpacity(k)
}

func (f *Flash) setOpacity(k float64) {
	for i, l := range flashLayers {
		f.layers[i].Opacity = f.cfg.Intensity * l.peak * k
	}
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
