package audio

// Envelope is a gain in [0,1] with at most one pending linear ramp on the
// audio clock (seconds).
type Envelope struct {
	value   float64
	from    float64
	to      float64
	start   float64
	end     float64
	pending bool
}

// NewEnvelope returns an envelope holding v.
func NewEnvelope(v float64) Envelope {
	return Envelope{value: clamp01(v)}
}

// ValueAt is the instantaneous gain at t. Before a pending ramp starts the
// ramp's anchor value holds.
func (e *Envelope) ValueAt(t float64) float64 {
	if !e.pending {
		return e.value
	}
	switch {
	case t <= e.start:
		return e.from
	case t >= e.end:
		return e.to
	}
	return e.from + (e.to-e.from)*(t-e.start)/(e.end-e.start)
}

// Set cancels any pending ramp and jumps to v.
func (e *Envelope) Set(v float64) {
	e.pending = false
	e.value = clamp01(v)
}

// RampTo cancels any pending ramp and schedules a linear ramp to target
// over [start, start+span]. The ramp is anchored to the value at now, so
// there is no jump. A start in the past is moved to now; a zero span is an
// immediate step at start.
func (e *Envelope) RampTo(target, start, span, now float64) {
	anchor := e.ValueAt(now)
	if start < now {
		start = now
	}
	if span < 0 {
		span = 0
	}
	e.value = anchor
	e.from = anchor
	e.to = clamp01(target)
	e.start = start
	e.end = start + span
	e.pending = true
	if span == 0 {
		// Degenerate ramp: hold anchor until start, then step.
		e.end = start
	}
}

// Pending reports whether a ramp is scheduled or in progress.
func (e *Envelope) Pending() bool { return e.pending }

// Target is the value the envelope settles at once any ramp completes.
func (e *Envelope) Target() float64 {
	if e.pending {
		return e.to
	}
	return e.value
}

// settle collapses a finished ramp into a plain value.
func (e *Envelope) settle(t float64) {
	if e.pending && t >= e.end {
		e.value = e.to
		e.pending = false
	}
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
