package audio

import "math"

// Procedural stand-ins for the engine recordings. They are used when an
// asset is missing and synthesis is enabled, so the showroom still sounds
// like a car without any files on disk.

// engineVoice is a firing-pulse engine model: an FM body tracking the
// firing frequency, a pulse train for the individual cylinders and some
// lowpassed exhaust noise.
type engineVoice struct {
	phase float64
	pulse float64
	seed  uint64
	lp    float64
	rate  float64
}

func newEngineVoice(seed uint64, rate int) *engineVoice {
	return &engineVoice{seed: seed, rate: float64(rate)}
}

// next returns one sample at firing frequency freq. bright in [0,1] opens
// up the FM index and the noise.
func (v *engineVoice) next(freq, bright float64) float64 {
	v.phase += 2 * math.Pi * freq / v.rate
	if v.phase > 2*math.Pi*1024 {
		v.phase -= 2 * math.Pi * 1024
	}
	v.pulse = math.Mod(v.pulse+freq/v.rate, 1.0)

	body := fmPhase(v.phase, 0.5, 1.2+2.4*bright) * 0.42
	sub := math.Sin(v.phase*0.5) * 0.30
	fire := math.Exp(-v.pulse*9) * (0.30 + 0.25*bright)
	a := 0.80 - 0.35*bright
	v.lp = v.lp*a + lcg(&v.seed)*(1-a)
	return body + sub + fire + v.lp*(0.25+0.35*bright)
}

func makeClip(name string, dur float64, rate int, f func(i int, t, p float64) float64) *Buffer {
	n := int(dur * float64(rate))
	b := &Buffer{Name: name, SampleRate: rate, Samples: make([]float32, n*ChannelCount)}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(rate)
		p := float64(i) / float64(n)
		s := float32(softSat(f(i, t, p)))
		b.Samples[i*2] = s
		b.Samples[i*2+1] = s
	}
	return b
}

const idleFiring = 36.0

// synthStart: starter motor whine and cranking, then the engine catches
// and settles to idle.
func synthStart(rate int) *Buffer {
	v := newEngineVoice(1201, rate)
	seed := uint64(8080)
	return makeClip("synth:start", 1.4, rate, func(_ int, t, p float64) float64 {
		if t < 0.55 {
			crank := math.Exp(-math.Mod(t*9, 1.0)*6) * 0.45
			whine := math.Sin(2*math.Pi*(420+120*t)*t) * 0.06
			return (crank + whine + lcg(&seed)*0.05) * math.Min(t/0.05, 1)
		}
		c := (t - 0.55) / 0.85
		// Catch overshoots to a flare before dropping back to idle.
		flare := math.Exp(-math.Pow((c-0.25)/0.18, 2))
		freq := idleFiring + 60*flare
		return v.next(freq, 0.3+0.5*flare) * (0.55 + 0.25*flare) * adsr(p, 0.02, 0.05, 1, 0.01)
	})
}

// synthLoop: steady idle. Lumpiness comes from a slow wobble on the firing
// rate; the duration is a whole number of wobble periods.
func synthLoop(rate int) *Buffer {
	v := newEngineVoice(3303, rate)
	return makeClip("synth:loop", 2.4, rate, func(_ int, t, _ float64) float64 {
		wobble := math.Sin(2 * math.Pi * 2.5 * t)
		return v.next(idleFiring+1.5*wobble, 0.15) * 0.55
	})
}

// synthRev: throttle blip up to about 4x idle and a slower fall back,
// with a couple of exhaust pops on the overrun.
func synthRev(rate int) *Buffer {
	v := newEngineVoice(7707, rate)
	seed := uint64(4242)
	return makeClip("synth:rev", 1.6, rate, func(_ int, t, p float64) float64 {
		var x float64
		if t < 0.35 {
			x = math.Sin(t / 0.35 * math.Pi / 2)
		} else {
			x = math.Exp(-(t - 0.35) * 3.2)
		}
		freq := idleFiring + 110*x
		s := v.next(freq, x) * (0.45 + 0.35*x)
		for _, at := range [...]float64{0.82, 1.05} {
			if d := t - at; d >= 0 && d < 0.05 {
				s += lcg(&seed) * math.Exp(-d*90) * 0.7
			}
		}
		return s * adsr(p, 0.01, 0.05, 1, 0.08)
	})
}

// synthTail: ignition off, firing rate decays to nothing.
func synthTail(rate int) *Buffer {
	v := newEngineVoice(9090, rate)
	return makeClip("synth:tail", 1.2, rate, func(_ int, t, p float64) float64 {
		freq := idleFiring * math.Exp(-t*2.2)
		return v.next(freq, 0.05) * 0.55 * (1 - p) * (1 - p)
	})
}

// Synthesize returns the procedural clip for kind.
func Synthesize(kind StreamKind, rate int) *Buffer {
	switch kind {
	case StreamStart:
		return synthStart(rate)
	case StreamLoop:
		return synthLoop(rate)
	case StreamRev:
		return synthRev(rate)
	case StreamTail:
		return synthTail(rate)
	}
	return nil
}
