package audio

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"
)

const testRate = 8000

func tone(name string, seconds float64) *Buffer {
	n := int(seconds * testRate)
	b := &Buffer{Name: name, SampleRate: testRate, Samples: make([]float32, n*2)}
	for i := range b.Samples {
		b.Samples[i] = 0.25
	}
	return b
}

func testBank(start, loop, rev, tail float64) *Bank {
	b := NewBank()
	if start > 0 {
		b.Set(StreamStart, tone("start", start))
	}
	if loop > 0 {
		b.Set(StreamLoop, tone("loop", loop))
	}
	if rev > 0 {
		b.Set(StreamRev, tone("rev", rev))
	}
	if tail > 0 {
		b.Set(StreamTail, tone("tail", tail))
	}
	return b
}

type fakeDevice struct {
	suspended  bool
	failResume int
	resumes    int
	closes     int
}

func (d *fakeDevice) Suspended() bool { return d.suspended }
func (d *fakeDevice) Suspend() error  { d.suspended = true; return nil }
func (d *fakeDevice) Close() error    { d.closes++; return nil }
func (d *fakeDevice) Resume() error {
	d.resumes++
	if d.failResume > 0 {
		d.failResume--
		return ErrDeviceSuspended
	}
	d.suspended = false
	return nil
}

// recGraph counts plays and can fail them for one stream.
type recGraph struct {
	*Mixer
	plays    [numStreams]int
	failKind StreamKind
	failing  bool
}

func (g *recGraph) Play(kind StreamKind, buf *Buffer, at, gain float64, loop LoopRegion) error {
	if g.failing && kind == g.failKind {
		return fmt.Errorf("%w: injected", ErrScheduling)
	}
	g.plays[kind]++
	return g.Mixer.Play(kind, buf, at, gain, loop)
}

type rig struct {
	graph *recGraph
	dev   *fakeDevice
	seq   *Sequencer
	wall  time.Duration
	out   []byte
}

func newRig(bank *Bank) *rig {
	g := &recGraph{Mixer: NewMixer(testRate)}
	dev := &fakeDevice{suspended: true}
	return &rig{
		graph: g,
		dev:   dev,
		seq:   NewSequencer(g, dev, bank, DefaultSettings(), nil),
		out:   make([]byte, testRate/200*frameBytes),
	}
}

// run renders audio and advances the sequencer's timers in 5ms steps so
// both clocks stay in lockstep.
func (r *rig) run(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += 5 * time.Millisecond {
		r.graph.Read(r.out)
		r.wall += 5 * time.Millisecond
		r.seq.Advance(r.wall)
	}
}

func near(t *testing.T, what string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-3 {
		t.Fatalf("%s = %.4f, want %.4f", what, got, want)
	}
}

func TestStartCrossfade(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.seq.Start()
	if !r.seq.State().Running {
		t.Fatal("engine not running after start")
	}
	if r.dev.suspended {
		t.Fatal("device not resumed")
	}
	near(t, "start gain at 0", r.graph.Gain(StreamStart), 1)
	near(t, "loop gain at 0", r.graph.Gain(StreamLoop), 0)

	r.run(1150 * time.Millisecond)
	near(t, "start gain at 1.15s", r.graph.Gain(StreamStart), 0.5)
	near(t, "loop gain at 1.15s", r.graph.Gain(StreamLoop), 0.5)

	r.run(100 * time.Millisecond)
	near(t, "start gain at 1.25s", r.graph.Gain(StreamStart), 0)
	near(t, "loop gain at 1.25s", r.graph.Gain(StreamLoop), 1)
	if !r.graph.Playing(StreamLoop) {
		t.Fatal("loop should keep playing")
	}
}

func TestSecondStartIsIgnored(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.seq.Start()
	r.run(500 * time.Millisecond)
	r.seq.Start()
	if r.graph.plays[StreamStart] != 1 || r.graph.plays[StreamLoop] != 1 {
		t.Fatalf("plays = %v, want one start and one loop", r.graph.plays)
	}
	r.run(800 * time.Millisecond)
	near(t, "loop gain", r.graph.Gain(StreamLoop), 1)
}

func TestStartNeedsStartAndLoop(t *testing.T) {
	r := newRig(testBank(0, 2.0, 0.6, 0.5))
	r.seq.Start()
	if r.seq.State().Running {
		t.Fatal("started without a start clip")
	}
	if r.dev.resumes != 0 {
		t.Fatal("device resumed for an ignored start")
	}
}

func TestStartWithShortClipClampsTransition(t *testing.T) {
	r := newRig(testBank(0.05, 2.0, 0.6, 0.5))
	r.seq.Start()
	r.run(50 * time.Millisecond)
	near(t, "start gain after 50ms", r.graph.Gain(StreamStart), 0.5)
	r.run(50 * time.Millisecond)
	near(t, "loop gain after 100ms", r.graph.Gain(StreamLoop), 1)
}

func TestRevDucksAndRestoresLoop(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.seq.Start()
	r.run(1300 * time.Millisecond)

	starts, ends := 0, 0
	r.seq.Rev(func() { starts++ }, func() { ends++ })
	if st := r.seq.State(); !st.Revving || !st.Running {
		t.Fatalf("state = %+v, want revving", st)
	}
	if starts != 1 {
		t.Fatalf("onRevStart called %d times", starts)
	}
	near(t, "rev gain", r.graph.Gain(StreamRev), 1)

	r.run(50 * time.Millisecond)
	near(t, "ducked loop", r.graph.Gain(StreamLoop), 0.3)

	r.run(550 * time.Millisecond)
	if r.seq.State().Revving {
		t.Fatal("still revving after the rev clip")
	}
	if ends != 1 {
		t.Fatalf("onRevEnd called %d times", ends)
	}
	r.run(50 * time.Millisecond)
	near(t, "restored loop", r.graph.Gain(StreamLoop), 1)
}

func TestRevDuringStartDoesNotDuck(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.3, 0.5))
	r.seq.Start()
	r.run(200 * time.Millisecond)
	r.seq.Rev(nil, nil)
	r.run(50 * time.Millisecond)
	near(t, "silent loop", r.graph.Gain(StreamLoop), 0)
}

func TestRevIgnoredWhenNotAllowed(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	called := 0
	r.seq.Rev(func() { called++ }, func() { called++ })
	if called != 0 || r.seq.State().Revving {
		t.Fatal("rev while stopped should be a no-op")
	}

	r.seq.Start()
	r.run(1300 * time.Millisecond)
	r.seq.Rev(nil, nil)
	r.seq.Rev(func() { called++ }, func() { called++ })
	if called != 0 {
		t.Fatal("rev while revving should be a no-op")
	}
	if r.graph.plays[StreamRev] != 1 {
		t.Fatalf("rev played %d times", r.graph.plays[StreamRev])
	}

	noRev := newRig(testBank(1.2, 2.0, 0, 0.5))
	noRev.seq.Start()
	noRev.seq.Rev(func() { called++ }, nil)
	if called != 0 || noRev.seq.State().Revving {
		t.Fatal("rev without a rev clip should be a no-op")
	}
}

func TestStopMidRev(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.seq.Start()
	r.run(1300 * time.Millisecond)
	ends := 0
	r.seq.Rev(nil, func() { ends++ })
	r.run(100 * time.Millisecond)

	r.seq.Stop()
	if st := r.seq.State(); st.Running || st.Revving {
		t.Fatalf("state after stop = %+v", st)
	}
	if ends != 1 {
		t.Fatalf("onRevEnd called %d times on stop", ends)
	}

	r.run(250 * time.Millisecond)
	if g := r.graph.Gain(StreamLoop); g <= 0 || g >= 0.3 {
		t.Fatalf("loop gain mid-fade = %.3f", g)
	}
	r.run(300 * time.Millisecond)
	if ends != 1 {
		t.Fatalf("cancelled rev completion still ran: %d", ends)
	}
	if r.graph.Playing(StreamLoop) || r.graph.Playing(StreamRev) {
		t.Fatal("sources not released after stop fade")
	}
	if !r.graph.Playing(StreamTail) {
		t.Fatal("tail not playing")
	}
	near(t, "tail gain", r.graph.Gain(StreamTail), 1)
}

func TestStopWithoutTail(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0))
	r.seq.Start()
	r.run(time.Second)
	r.seq.Stop()
	r.run(600 * time.Millisecond)
	for _, k := range Kinds() {
		if r.graph.Playing(k) {
			t.Fatalf("%s still playing", k)
		}
	}
}

func TestRestartDuringStopFade(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.seq.Start()
	r.run(1300 * time.Millisecond)
	r.seq.Stop()
	r.run(100 * time.Millisecond)
	r.seq.Start()
	r.run(600 * time.Millisecond)
	if r.graph.Playing(StreamTail) {
		t.Fatal("stale tail fired after restart")
	}
	if !r.graph.Playing(StreamLoop) {
		t.Fatal("restart lost the loop")
	}
}

func TestStartFailureRollsBack(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.graph.failing, r.graph.failKind = true, StreamLoop
	r.seq.Start()
	if r.seq.State().Running {
		t.Fatal("running after failed start")
	}
	if r.graph.Playing(StreamStart) {
		t.Fatal("start clip left playing")
	}

	r.graph.failing = false
	r.seq.Start()
	if !r.seq.State().Running {
		t.Fatal("start did not recover")
	}
}

func TestRevFailureStillEnds(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.seq.Start()
	r.run(1300 * time.Millisecond)
	r.graph.failing, r.graph.failKind = true, StreamRev

	starts, ends := 0, 0
	r.seq.Rev(func() { starts++ }, func() { ends++ })
	if r.seq.State().Revving {
		t.Fatal("revving after failure")
	}
	if !r.seq.State().Running {
		t.Fatal("rev failure stopped the engine")
	}
	if starts != 1 || ends != 1 {
		t.Fatalf("callbacks start=%d end=%d, want 1/1", starts, ends)
	}
	r.run(100 * time.Millisecond)
	near(t, "restored loop", r.graph.Gain(StreamLoop), 1)
}

func TestRevFailureDuringStartKeepsCrossfade(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.seq.Start()
	r.run(500 * time.Millisecond)
	r.graph.failing, r.graph.failKind = true, StreamRev

	ends := 0
	r.seq.Rev(nil, func() { ends++ })
	if ends != 1 || r.seq.State().Revving {
		t.Fatalf("ends=%d revving=%t after failed rev", ends, r.seq.State().Revving)
	}

	r.run(100 * time.Millisecond)
	near(t, "start gain at 0.6s", r.graph.Gain(StreamStart), 1)
	near(t, "loop gain at 0.6s", r.graph.Gain(StreamLoop), 0)

	r.run(650 * time.Millisecond)
	near(t, "start gain at 1.25s", r.graph.Gain(StreamStart), 0)
	near(t, "loop gain at 1.25s", r.graph.Gain(StreamLoop), 1)
}

func TestDeviceResumeRetry(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.dev.failResume = 1
	r.seq.Start()
	if !r.seq.State().Running || r.dev.resumes != 2 {
		t.Fatalf("running=%t resumes=%d, want retry to succeed", r.seq.State().Running, r.dev.resumes)
	}

	r = newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.dev.failResume = 2
	r.seq.Start()
	if r.seq.State().Running {
		t.Fatal("running on a device that never resumed")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	r := newRig(testBank(1.2, 2.0, 0.6, 0.5))
	r.seq.Start()
	r.run(1300 * time.Millisecond)
	ends := 0
	r.seq.Rev(nil, func() { ends++ })

	r.seq.Cleanup()
	r.seq.Cleanup()
	if r.dev.closes != 1 {
		t.Fatalf("device closed %d times", r.dev.closes)
	}
	if ends != 1 {
		t.Fatalf("onRevEnd called %d times", ends)
	}
	for _, k := range Kinds() {
		if r.graph.Playing(k) {
			t.Fatalf("%s playing after cleanup", k)
		}
	}

	r.seq.Start()
	r.seq.Rev(nil, nil)
	r.seq.Stop()
	r.run(time.Second)
	if r.seq.State().Running || r.graph.Playing(StreamTail) {
		t.Fatal("operations after cleanup had effects")
	}
}

func TestRevvingImpliesRunning(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := newRig(testBank(0.4, 1.0, 0.3, 0.2))
	open := 0
	for i := 0; i < 2000; i++ {
		switch rng.Intn(5) {
		case 0:
			r.seq.Start()
		case 1:
			r.seq.Rev(func() { open++ }, func() { open-- })
		case 2:
			r.seq.Stop()
		default:
			r.run(time.Duration(rng.Intn(20)) * 5 * time.Millisecond)
		}
		st := r.seq.State()
		if !st.Valid() {
			t.Fatalf("step %d: invalid state %+v", i, st)
		}
		want := 0
		if st.Revving {
			want = 1
		}
		if open != want {
			t.Fatalf("step %d: %d rev callbacks outstanding in state %+v", i, open, st)
		}
	}
	r.seq.Cleanup()
	if open != 0 {
		t.Fatalf("cleanup left %d revs open", open)
	}
}

func TestErrorsWrapSentinels(t *testing.T) {
	m := NewMixer(testRate)
	if err := m.Play(StreamRev, nil, 0, 1, LoopRegion{}); !errors.Is(err, ErrAssetUnavailable) {
		t.Fatalf("nil buffer: %v", err)
	}
	other := &Buffer{Name: "x", SampleRate: 44100, Samples: make([]float32, 8)}
	if err := m.Play(StreamRev, other, 0, 1, LoopRegion{}); !errors.Is(err, ErrScheduling) {
		t.Fatalf("rate mismatch: %v", err)
	}
	if err := m.RampGain(StreamLoop, 1, 0, -1); !errors.Is(err, ErrScheduling) {
		t.Fatalf("negative span: %v", err)
	}
}
