package audio

import (
	"fmt"
	"math"
	"sync"
)

type source struct {
	buf       *Buffer
	startAt   int64 // audio-clock frame at which playback begins
	pos       int   // next frame of buf to read
	loop      bool
	loopStart int
	loopEnd   int
}

type channel struct {
	env Envelope
	src *source
}

// Mixer renders the four streams into one stereo float32 signal. It owns
// the audio clock: time advances only as frames are rendered, so gain ramps
// are sample accurate regardless of how the device pulls data.
//
// Read is called from the output device's goroutine; every other method is
// called from the render loop. All state is guarded by mu.
type Mixer struct {
	mu     sync.Mutex
	rate   int
	frame  int64
	ch     [numStreams]channel
	master float64
}

// NewMixer returns a silent mixer at sampleRate.
func NewMixer(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	return &Mixer{rate: sampleRate, master: 1}
}

// SampleRate is the rate the mixer renders at.
func (m *Mixer) SampleRate() int { return m.rate }

// Now is the audio clock in seconds.
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now()
}

func (m *Mixer) now() float64 { return float64(m.frame) / float64(m.rate) }

// Play replaces the source on kind with buf, starting at audio time at with
// the given gain. Any pending ramp on kind is cancelled.
func (m *Mixer) Play(kind StreamKind, buf *Buffer, at, gain float64, loop LoopRegion) error {
	if kind < 0 || kind >= numStreams {
		return fmt.Errorf("%w: unknown stream %d", ErrScheduling, kind)
	}
	if buf == nil || buf.Frames() == 0 {
		return fmt.Errorf("%w: %s", ErrAssetUnavailable, kind)
	}
	if buf.SampleRate != m.rate {
		return fmt.Errorf("%w: %s is %d Hz, mixer runs at %d Hz", ErrScheduling, buf.Name, buf.SampleRate, m.rate)
	}
	if math.IsNaN(at) || math.IsNaN(gain) {
		return fmt.Errorf("%w: invalid start for %s", ErrScheduling, kind)
	}

	src := &source{buf: buf}
	if loop.Enabled {
		src.loop = true
		src.loopStart = clampFrame(int(math.Round(loop.Start*float64(m.rate))), buf.Frames())
		src.loopEnd = clampFrame(int(math.Round(loop.End*float64(m.rate))), buf.Frames())
		if src.loopEnd <= src.loopStart {
			src.loopStart, src.loopEnd = 0, buf.Frames()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	startAt := int64(math.Round(at * float64(m.rate)))
	if startAt < m.frame {
		startAt = m.frame
	}
	src.startAt = startAt
	c := &m.ch[kind]
	c.src = src
	c.env.Set(gain)
	return nil
}

// Stop silences kind immediately.
func (m *Mixer) Stop(kind StreamKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind >= 0 && kind < numStreams {
		m.ch[kind].src = nil
		m.ch[kind].env.Set(0)
	}
}

// StopAll silences every stream and drops pending ramps.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.ch {
		m.ch[i].src = nil
		m.ch[i].env.Set(0)
	}
}

// Playing reports whether kind has a source that has not run out.
func (m *Mixer) Playing(kind StreamKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return kind >= 0 && kind < numStreams && m.ch[kind].src != nil
}

// Gain is the instantaneous gain of kind on the audio clock.
func (m *Mixer) Gain(kind StreamKind) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind < 0 || kind >= numStreams {
		return 0
	}
	return m.ch[kind].env.ValueAt(m.now())
}

// SetGain jumps kind to v, cancelling any pending ramp.
func (m *Mixer) SetGain(kind StreamKind, v float64) error {
	if kind < 0 || kind >= numStreams || math.IsNaN(v) {
		return fmt.Errorf("%w: set gain %v on %s", ErrScheduling, v, kind)
	}
	m.mu.Lock()
	m.ch[kind].env.Set(v)
	m.mu.Unlock()
	return nil
}

// RampGain schedules a linear ramp on kind to target over [at, at+span],
// anchored at the current gain.
func (m *Mixer) RampGain(kind StreamKind, target, at, span float64) error {
	if kind < 0 || kind >= numStreams || math.IsNaN(target) || math.IsNaN(at) || math.IsNaN(span) || span < 0 {
		return fmt.Errorf("%w: ramp %s to %v at %v over %v", ErrScheduling, kind, target, at, span)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ch[kind].env.RampTo(target, at, span, m.now())
	return nil
}

// SetMaster sets the output volume applied after mixing.
func (m *Mixer) SetMaster(v float64) {
	m.mu.Lock()
	m.master = clamp01(v)
	m.mu.Unlock()
}

// Read renders float32 LE stereo frames into p. The stream never ends.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < frames; i++ {
		l, r := m.renderFrame()
		putStereoF32(p, i, l, r)
	}
	m.settle()
	return frames * frameBytes, nil
}

// Mix renders interleaved stereo float32 frames into out.
func (m *Mixer) Mix(out []float32) {
	frames := len(out) / ChannelCount
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < frames; i++ {
		out[i*2], out[i*2+1] = m.renderFrame()
	}
	m.settle()
}

// renderFrame mixes one frame and advances the clock. Caller holds mu.
func (m *Mixer) renderFrame() (float32, float32) {
	t := m.now()
	var l, r float64
	for k := range m.ch {
		c := &m.ch[k]
		s := c.src
		if s == nil || m.frame < s.startAt {
			continue
		}
		g := c.env.ValueAt(t)
		i := s.pos * ChannelCount
		l += float64(s.buf.Samples[i]) * g
		r += float64(s.buf.Samples[i+1]) * g

		s.pos++
		if s.loop {
			if s.pos >= s.loopEnd {
				s.pos = s.loopStart
			}
		} else if s.pos >= s.buf.Frames() {
			c.src = nil
		}
	}
	m.frame++
	return float32(softSat(l * m.master)), float32(softSat(r * m.master))
}

func (m *Mixer) settle() {
	t := m.now()
	for k := range m.ch {
		m.ch[k].env.settle(t)
	}
}

func clampFrame(f, n int) int {
	if f < 0 {
		return 0
	}
	if f > n {
		return n
	}
	return f
}
