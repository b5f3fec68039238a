package effects

import (
	"math"
	"testing"
	"time"
)

// fixed returns the same value forever.
type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

// seq cycles through vals.
type seq struct {
	vals []float64
	i    int
}

func (s *seq) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

type countingScene struct {
	live map[*Sprite]bool
	seen int
}

func newScene() *countingScene { return &countingScene{live: map[*Sprite]bool{}} }

func (c *countingScene) Attach(s *Sprite) { c.live[s] = true; c.seen++ }
func (c *countingScene) Detach(s *Sprite) { delete(c.live, s) }

func testSmoke() SmokeConfig {
	return SmokeConfig{ParticlesPerEmission: 3, EmissionRate: 50, Lifetime: 2000, Scale: 1.2, Color: Color{0.3, 0.3, 0.3}}
}

func TestEmitterEmitsOnSchedule(t *testing.T) {
	scene := newScene()
	e := NewEmitter(testSmoke(), scene, NewRand(42))
	e.SetActive(true)
	for ms := 10.0; ms <= 500; ms += 10 {
		e.Update(ms, 10)
	}
	if e.Len() != 30 {
		t.Fatalf("live particles = %d, want 10 emissions of 3", e.Len())
	}
	if len(scene.live) != 30 {
		t.Fatalf("attached sprites = %d", len(scene.live))
	}
}

func TestEmitterInactiveDoesNotEmit(t *testing.T) {
	e := NewEmitter(testSmoke(), nil, NewRand(1))
	for ms := 10.0; ms <= 500; ms += 10 {
		e.Update(ms, 10)
	}
	if e.Len() != 0 {
		t.Fatalf("inactive emitter spawned %d particles", e.Len())
	}
}

func TestParticlesRetireAndDetach(t *testing.T) {
	scene := newScene()
	cfg := testSmoke()
	cfg.Lifetime = 100
	e := NewEmitter(cfg, scene, NewRand(3))
	e.SetActive(true)
	e.Update(50, 16)
	if e.Len() != 3 {
		t.Fatalf("live = %d", e.Len())
	}
	e.SetActive(false)
	// Lifetime is at most 100+500 ms.
	for ms := 66.0; ms <= 800; ms += 16 {
		e.Update(ms, 16)
	}
	if e.Len() != 0 || len(scene.live) != 0 {
		t.Fatalf("live=%d attached=%d after lifetime", e.Len(), len(scene.live))
	}
}

func TestSpawnRanges(t *testing.T) {
	cfg := testSmoke()
	e := NewEmitter(cfg, nil, NewRand(99))
	e.SetActive(true)
	for ms := 50.0; ms <= 5000; ms += 50 {
		e.Update(ms, 0)
	}
	for _, p := range e.Particles() {
		if math.Abs(p.Pos.X) > 0.1 || math.Abs(p.Pos.Z) > 0.1 || p.Pos.Y < 0 || p.Pos.Y >= 0.1 {
			t.Fatalf("spawn position out of range: %+v", p.Pos)
		}
		if math.Abs(p.Vel.X) > 1 || p.Vel.Y < 1 || p.Vel.Y >= 3 || math.Abs(p.Vel.Z) > 0.5 {
			t.Fatalf("spawn velocity out of range: %+v", p.Vel)
		}
		if p.Lifetime < cfg.Lifetime || p.Lifetime >= cfg.Lifetime+500 {
			t.Fatalf("lifetime = %v", p.Lifetime)
		}
		if p.StartScale < 0.15*cfg.Scale || p.StartScale >= 0.45*cfg.Scale {
			t.Fatalf("start scale = %v", p.StartScale)
		}
		if grow := p.FinalScale - p.StartScale; grow < 0.4*cfg.Scale || grow >= cfg.Scale {
			t.Fatalf("growth = %v", grow)
		}
	}
}

func TestDragAndAdvection(t *testing.T) {
	e := NewEmitter(testSmoke(), nil, fixed(0.5))
	e.SetActive(true)
	e.Update(50, 0)
	p := e.Particles()[0]
	if p.Vel.Y != 2 {
		t.Fatalf("vy = %v", p.Vel.Y)
	}
	e.SetActive(false)
	e.Update(150, 100)
	p = e.Particles()[0]
	if math.Abs(p.Pos.Y-(0.05+0.2)) > 1e-9 {
		t.Fatalf("y = %v, want 0.25", p.Pos.Y)
	}
	if want := 2 * math.Pow(0.95, 6); math.Abs(p.Vel.Y-want) > 1e-9 {
		t.Fatalf("vy = %v, want %v", p.Vel.Y, want)
	}
}

func TestSmokeOpacity(t *testing.T) {
	cases := []struct{ life, want float64 }{
		{0, 0},
		{0.1, 0.35},
		{0.2, 0.7},
		{0.6, 0.35},
		{1.0, 0},
		{1.2, 0},
	}
	for _, c := range cases {
		if got := SmokeOpacity(c.life); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("SmokeOpacity(%v) = %v, want %v", c.life, got, c.want)
		}
	}
}

func TestClearDetachesEverything(t *testing.T) {
	scene := newScene()
	e := NewEmitter(testSmoke(), scene, NewRand(5))
	e.SetActive(true)
	for ms := 50.0; ms <= 300; ms += 50 {
		e.Update(ms, 50)
	}
	e.Clear()
	if e.Len() != 0 || len(scene.live) != 0 {
		t.Fatalf("live=%d attached=%d after clear", e.Len(), len(scene.live))
	}
}

func TestDrawPattern(t *testing.T) {
	cases := []struct {
		x    float64
		want Pattern
	}{
		{0.0, PatternNone},
		{0.1, PatternNone},
		{0.3, PatternSingle},
		{0.6, PatternShort},
		{0.9, PatternLong},
		{0.97, PatternExtended},
		{0.999, PatternExtended},
	}
	for _, c := range cases {
		if got := DrawPattern(fixed(c.x)); got != c.want {
			t.Errorf("DrawPattern(%v) = %s, want %s", c.x, got, c.want)
		}
	}
}

func TestPlanSequenceCounts(t *testing.T) {
	if got := PlanSequence(PatternNone, NewRand(1)); len(got) != 0 {
		t.Fatalf("none planned %d attempts", len(got))
	}
	if got := PlanSequence(PatternSingle, NewRand(1)); len(got) != 1 || got[0].Delay != 0 {
		t.Fatalf("single = %+v", got)
	}

	bounds := map[Pattern][2]int{
		PatternShort:    {2, 3},
		PatternLong:     {4, 6},
		PatternExtended: {7, 10},
	}
	r := NewRand(2024)
	for p, b := range bounds {
		seen := map[int]bool{}
		for i := 0; i < 500; i++ {
			steps := PlanSequence(p, r)
			if len(steps) < b[0] || len(steps) > b[1] {
				t.Fatalf("%s: %d attempts", p, len(steps))
			}
			seen[len(steps)] = true
			if steps[0].Delay != 0 {
				t.Fatalf("%s: first attempt delayed %v", p, steps[0].Delay)
			}
			for _, s := range steps[1:] {
				if s.Delay < 30*time.Millisecond {
					t.Fatalf("%s: delay %v below floor", p, s.Delay)
				}
			}
		}
		if len(seen) != b[1]-b[0]+1 {
			t.Errorf("%s: only saw counts %v", p, seen)
		}
	}
}

func TestPlanSequenceSkips(t *testing.T) {
	steps := PlanSequence(PatternExtended, fixed(0.05))
	for i, s := range steps {
		if !s.Skip {
			t.Fatalf("attempt %d not skipped", i)
		}
	}
	steps = PlanSequence(PatternExtended, fixed(0.5))
	for i, s := range steps {
		if s.Skip {
			t.Fatalf("attempt %d skipped", i)
		}
		if i > 0 && s.Delay != 55*time.Millisecond {
			t.Fatalf("attempt %d delay %v, want base 55ms", i, s.Delay)
		}
	}
}

func testFlash(r Source, scene Scene) *Flash {
	return NewFlash(FlashConfig{Position: Vec3{X: -2.25, Y: 0.06, Z: -2.9}, Color: Color{0, 0.67, 1}, Intensity: 1.8}, scene, r)
}

func TestFlashBurstHoldsThenFades(t *testing.T) {
	scene := newScene()
	// 0.3 draws a single unskipped burst; patterns repeat every 1250ms.
	f := testFlash(fixed(0.3), scene)
	if len(scene.live) != 4 {
		t.Fatalf("attached layers = %d", len(scene.live))
	}
	core := f.Layers()[0]
	if core.Opacity != 0 {
		t.Fatal("layers should start dark")
	}

	f.Activate()
	if f.Bursts() != 1 {
		t.Fatalf("bursts = %d after activate", f.Bursts())
	}
	if math.Abs(core.Opacity-1.8) > 1e-9 || math.Abs(f.Layers()[3].Opacity-0.9) > 1e-9 {
		t.Fatalf("peak opacities = %v, %v", core.Opacity, f.Layers()[3].Opacity)
	}
	if math.Abs(core.Scale-0.6*0.92) > 1e-9 {
		t.Fatalf("core scale = %v", core.Scale)
	}

	f.Update(30, 30)
	if math.Abs(core.Opacity-1.8) > 1e-9 {
		t.Fatalf("opacity during hold = %v", core.Opacity)
	}
	f.Update(70, 40)
	if math.Abs(core.Opacity-0.9) > 1e-9 {
		t.Fatalf("opacity half way through fade = %v", core.Opacity)
	}
	f.Update(110, 40)
	if core.Opacity != 0 {
		t.Fatalf("opacity after fade = %v", core.Opacity)
	}

	for ms := 126.0; ms < 1250; ms += 16 {
		f.Update(ms, 16)
	}
	if f.Bursts() != 1 {
		t.Fatalf("next pattern fired early: %d bursts", f.Bursts())
	}
	f.Update(1250, 16)
	if f.Bursts() != 2 {
		t.Fatalf("bursts = %d at 1250ms, want 2", f.Bursts())
	}
}

func TestFlashSequenceTiming(t *testing.T) {
	// 0.6 draws Short with 3 attempts 87ms apart.
	f := testFlash(fixed(0.6), nil)
	shakes := 0
	f.OnBurst = func() { shakes++ }
	f.Activate()
	f.Update(86, 86)
	if f.Bursts() != 1 {
		t.Fatalf("bursts = %d before first gap", f.Bursts())
	}
	f.Update(87, 1)
	f.Update(174, 87)
	if f.Bursts() != 3 || shakes != 3 {
		t.Fatalf("bursts=%d callbacks=%d, want 3", f.Bursts(), shakes)
	}
	f.Update(400, 226)
	if f.Bursts() != 3 {
		t.Fatalf("sequence overran: %d", f.Bursts())
	}
}

func TestDeactivateCancelsPendingBursts(t *testing.T) {
	f := testFlash(fixed(0.6), nil)
	f.Activate()
	f.Update(40, 40)
	f.Deactivate()
	if f.Active() {
		t.Fatal("still active")
	}
	for ms := 56.0; ms <= 5000; ms += 16 {
		f.Update(ms, 16)
	}
	if f.Bursts() != 1 {
		t.Fatalf("bursts after deactivate = %d", f.Bursts())
	}
	if f.Layers()[0].Opacity != 0 {
		t.Fatal("in-flight burst did not fade out")
	}

	f.SetActive(true)
	if f.Bursts() != 2 {
		t.Fatal("reactivation did not fire immediately")
	}
}

func TestFlashNonePatternIsDark(t *testing.T) {
	f := testFlash(fixed(0.1), nil)
	f.Activate()
	for ms := 16.0; ms < 700; ms += 16 {
		f.Update(ms, 16)
	}
	if f.Bursts() != 0 {
		t.Fatalf("none pattern fired %d bursts", f.Bursts())
	}
	for _, l := range f.Layers() {
		if l.Opacity != 0 {
			t.Fatal("layer lit without a burst")
		}
	}
}

func TestFlashCloseDetaches(t *testing.T) {
	scene := newScene()
	f := testFlash(NewRand(8), scene)
	f.Activate()
	f.Close()
	if len(scene.live) != 0 || f.Active() {
		t.Fatalf("close left %d layers attached", len(scene.live))
	}
}

func TestRandDeterministicAndDerived(t *testing.T) {
	a, b := NewRand(9), NewRand(9)
	for i := 0; i < 100; i++ {
		x := a.Float64()
		if x != b.Float64() {
			t.Fatal("same seed diverged")
		}
		if x < 0 || x >= 1 {
			t.Fatalf("Float64 = %v out of [0,1)", x)
		}
	}
	if Derive(9, 1) == Derive(9, 2) || Derive(9, 1) != Derive(9, 1) {
		t.Fatal("derived seeds not distinct per stream")
	}
}
