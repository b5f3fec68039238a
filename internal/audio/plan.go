package audio

import (
	"math"
	"time"
)

// EngineState is the sequencer's observable state. Revving implies Running.
type EngineState struct {
	Running bool
	Revving bool
}

// Valid checks the Revving => Running invariant.
func (s EngineState) Valid() bool { return !s.Revving || s.Running }

func (s EngineState) String() string {
	switch {
	case s.Revving:
		return "revving"
	case s.Running:
		return "running"
	}
	return "stopped"
}

// Op is the kind of side effect a transition asks for.
type Op int

const (
	OpResume Op = iota
	OpCancelTimers
	OpStopSources
	OpPlay
	OpSetGain
	OpRamp
	OpDefer
	OpNotify
	OpClose
)

var opNames = [...]string{"resume", "cancel-timers", "stop-sources", "play", "set-gain", "ramp", "defer", "notify", "close"}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "op?"
	}
	return opNames[o]
}

// Event names the follow-up a deferred effect triggers, or the callback a
// notify effect invokes.
type Event int

const (
	EventNone Event = iota
	EventRevStart
	EventRevEnd
	EventRevDone
	EventStopDone
)

// Effect is one step of a planned transition. Fields not used by Op are
// zero.
type Effect struct {
	Op    Op
	Kind  StreamKind
	Gain  float64 // play start gain, set-gain value or ramp target
	At    float64 // audio clock seconds
	Span  float64 // ramp length in seconds
	Loop  LoopRegion
	Delay time.Duration
	Event Event
}

// Snapshot is what the planner may observe about the audio graph.
type Snapshot struct {
	Now     float64
	Closed  bool
	Length  [numStreams]float64 // clip seconds; zero means unavailable
	Playing [numStreams]bool
	Gain    [numStreams]float64
}

func (s Snapshot) has(k StreamKind) bool { return s.Length[k] > 0 }

// Settings are the sequencer's timing and level constants.
type Settings struct {
	FadeTime         time.Duration `yaml:"fade_time"`
	DuckTime         time.Duration `yaml:"duck_time"`
	StopFadeTime     time.Duration `yaml:"stop_fade_time"`
	LoopTrim         time.Duration `yaml:"loop_trim"`
	NormalLoopVolume float64       `yaml:"normal_loop_volume"`
	RevLoopVolume    float64       `yaml:"rev_loop_volume"`
}

// DefaultSettings returns the showroom's reference timings.
func DefaultSettings() Settings {
	return Settings{
		FadeTime:         100 * time.Millisecond,
		DuckTime:         50 * time.Millisecond,
		StopFadeTime:     500 * time.Millisecond,
		LoopTrim:         300 * time.Millisecond,
		NormalLoopVolume: 1.0,
		RevLoopVolume:    0.3,
	}
}

// Loop gain thresholds for deciding whether the idle loop is "audible"
// (duck it for a rev) or "ducked" (restore it afterwards). These are
// approximations: a loop caught mid-crossfade may fall between them.
const (
	audibleFrac = 0.9
	duckedFrac  = 1.1
)

// planStart begins the engine: Start at full gain, Loop silent, then a
// crossfade into the loop as Start ends.
func planStart(st EngineState, snap Snapshot, set Settings) (EngineState, []Effect) {
	if st.Running || snap.Closed || !snap.has(StreamStart) || !snap.has(StreamLoop) {
		return st, nil
	}
	t0 := snap.Now
	fade := set.FadeTime.Seconds()
	transition := t0 + snap.Length[StreamStart] - fade
	if transition < t0 {
		transition = t0
	}
	loopRegion := TrimmedLoop(snap.Length[StreamLoop], set.LoopTrim.Seconds())
	return EngineState{Running: true}, []Effect{
		{Op: OpResume},
		{Op: OpStopSources},
		{Op: OpCancelTimers},
		{Op: OpPlay, Kind: StreamStart, Gain: 1, At: t0},
		{Op: OpPlay, Kind: StreamLoop, Gain: 0, At: t0, Loop: loopRegion},
		{Op: OpRamp, Kind: StreamStart, Gain: 0, At: transition, Span: fade},
		{Op: OpRamp, Kind: StreamLoop, Gain: set.NormalLoopVolume, At: transition, Span: fade},
	}
}

// planRev spikes the engine: duck an audible loop, play Rev, and schedule
// the rev's end after the clip's length.
func planRev(st EngineState, snap Snapshot, set Settings) (EngineState, []Effect) {
	if !st.Running || st.Revving || snap.Closed || !snap.has(StreamRev) {
		return st, nil
	}
	now := snap.Now
	effects := []Effect{
		{Op: OpResume},
		{Op: OpNotify, Event: EventRevStart},
	}
	if snap.Playing[StreamLoop] && snap.Gain[StreamLoop] >= set.NormalLoopVolume*audibleFrac {
		effects = append(effects, Effect{
			Op: OpRamp, Kind: StreamLoop, Gain: set.NormalLoopVolume * set.RevLoopVolume,
			At: now, Span: set.DuckTime.Seconds(),
		})
	}
	effects = append(effects,
		Effect{Op: OpPlay, Kind: StreamRev, Gain: 1, At: now},
		Effect{Op: OpDefer, Delay: secondsToDuration(snap.Length[StreamRev]), Event: EventRevDone},
	)
	return EngineState{Running: true, Revving: true}, effects
}

// planRevDone ends a rev: bring a ducked loop back and tell the caller.
func planRevDone(st EngineState, snap Snapshot, set Settings) (EngineState, []Effect) {
	next := EngineState{Running: st.Running}
	var effects []Effect
	duck := set.NormalLoopVolume * set.RevLoopVolume
	if g := snap.Gain[StreamLoop]; st.Running && snap.Playing[StreamLoop] && g > 0 && g <= duck*duckedFrac {
		effects = append(effects, Effect{
			Op: OpRamp, Kind: StreamLoop, Gain: set.NormalLoopVolume,
			At: snap.Now, Span: set.DuckTime.Seconds(),
		})
	}
	effects = append(effects, Effect{Op: OpNotify, Event: EventRevEnd})
	return next, effects
}

// planStop fades every audible stream out and schedules the tail. A rev in
// flight is ended immediately so the caller's revving flag is released.
func planStop(st EngineState, snap Snapshot, set Settings) (EngineState, []Effect) {
	if !st.Running {
		return st, nil
	}
	effects := []Effect{{Op: OpCancelTimers}}
	if st.Revving {
		effects = append(effects, Effect{Op: OpNotify, Event: EventRevEnd})
	}
	fade := set.StopFadeTime.Seconds()
	for _, k := range []StreamKind{StreamStart, StreamLoop, StreamRev} {
		if snap.Playing[k] && snap.Gain[k] > 0 {
			effects = append(effects, Effect{Op: OpRamp, Kind: k, Gain: 0, At: snap.Now, Span: fade})
		}
	}
	effects = append(effects, Effect{Op: OpDefer, Delay: set.StopFadeTime, Event: EventStopDone})
	return EngineState{}, effects
}

// planTail runs once the stop fade has finished: release everything and
// play the shutdown tail if there is one.
func planTail(st EngineState, snap Snapshot) (EngineState, []Effect) {
	effects := []Effect{{Op: OpStopSources}}
	if !snap.Closed && snap.has(StreamTail) {
		effects = append(effects, Effect{Op: OpPlay, Kind: StreamTail, Gain: 1, At: snap.Now})
	}
	return st, effects
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
