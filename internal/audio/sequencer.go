// Package audio plays the layered engine soundtrack: a start clip that
// crossfades into an idle loop, rev spikes that duck the loop, and a
// shutdown tail after a fade out.
package audio

import (
	"fmt"
	"time"

	"showroom/internal/timer"
)

// Logger is the subset of the project logger the audio code uses.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Graph is the per-stream playback surface the sequencer drives. *Mixer
// implements it.
type Graph interface {
	Now() float64
	Play(kind StreamKind, buf *Buffer, at, gain float64, loop LoopRegion) error
	StopAll()
	Playing(kind StreamKind) bool
	Gain(kind StreamKind) float64
	SetGain(kind StreamKind, v float64) error
	RampGain(kind StreamKind, target, at, span float64) error
}

// Sequencer owns the engine state machine. Transitions are planned by the
// pure plan* functions and applied here against the graph, the device and
// a wall-clock timer queue.
//
// A Sequencer belongs to the render loop goroutine. No operation returns
// an error: failures are logged and the operation is rolled back.
type Sequencer struct {
	graph  Graph
	dev    Device
	bank   *Bank
	set    Settings
	log    Logger
	timers *timer.Queue

	state    EngineState
	closed   bool
	onRevEnd func()
	ducked   bool // the current rev has turned the loop down
}

// NewSequencer wires a sequencer. dev may be nil when there is no device
// to resume (tests, offline rendering).
func NewSequencer(g Graph, dev Device, bank *Bank, set Settings, log Logger) *Sequencer {
	if log == nil {
		log = nopLogger{}
	}
	if bank == nil {
		bank = NewBank()
	}
	return &Sequencer{
		graph:  g,
		dev:    dev,
		bank:   bank,
		set:    set,
		log:    log,
		timers: timer.NewQueue(),
	}
}

// State returns the current engine state.
func (s *Sequencer) State() EngineState { return s.state }

// Closed reports whether Cleanup has run.
func (s *Sequencer) Closed() bool { return s.closed }

// Advance runs deferred work that is due at wall-clock time now.
func (s *Sequencer) Advance(now time.Duration) {
	s.timers.Advance(now)
}

// Start plays the start clip and crossfades into the idle loop.
func (s *Sequencer) Start() {
	if s.closed {
		s.log.Debugf("start ignored: %v", ErrClosed)
		return
	}
	next, effects := planStart(s.state, s.snapshot(), s.set)
	if effects == nil {
		s.log.Debugf("start ignored: %v (state %s, start=%t loop=%t)",
			ErrInvalidTransition, s.state, s.bank.Has(StreamStart), s.bank.Has(StreamLoop))
		return
	}
	s.state = next
	if err := s.apply(effects, nil); err != nil {
		s.log.Errorf("engine start failed: %v", err)
		s.state = EngineState{}
		s.graph.StopAll()
		s.timers.CancelAll()
		return
	}
	s.log.Infof("engine started")
}

// Rev plays a rev spike. onRevStart runs once the rev is committed;
// onRevEnd runs exactly once afterwards, whether the rev completes, is cut
// short by Stop or Cleanup, or fails.
func (s *Sequencer) Rev(onRevStart, onRevEnd func()) {
	if s.closed {
		s.log.Debugf("rev ignored: %v", ErrClosed)
		return
	}
	next, effects := planRev(s.state, s.snapshot(), s.set)
	if effects == nil {
		s.log.Debugf("rev ignored: %v (state %s, rev=%t)", ErrInvalidTransition, s.state, s.bank.Has(StreamRev))
		return
	}
	s.state = next
	s.onRevEnd = onRevEnd
	s.ducked = false
	if err := s.apply(effects, onRevStart); err != nil {
		s.log.Errorf("rev failed: %v", err)
		s.state.Revving = false
		s.restoreLoop()
		s.finishRev()
		return
	}
	s.log.Debugf("rev started")
}

// Stop fades the engine out and plays the shutdown tail.
func (s *Sequencer) Stop() {
	if s.closed {
		s.log.Debugf("stop ignored: %v", ErrClosed)
		return
	}
	next, effects := planStop(s.state, s.snapshot(), s.set)
	if effects == nil {
		s.log.Debugf("stop ignored: %v (state %s)", ErrInvalidTransition, s.state)
		return
	}
	s.state = next
	if err := s.apply(effects, nil); err != nil {
		s.log.Errorf("engine stop failed: %v", err)
		s.graph.StopAll()
		s.finishRev()
		return
	}
	s.log.Infof("engine stopping")
}

// Cleanup stops everything and releases the device. It is safe to call from
// any state and more than once; every later operation is a no-op.
func (s *Sequencer) Cleanup() {
	if s.closed {
		return
	}
	s.Stop()
	s.closed = true
	effects := []Effect{{Op: OpCancelTimers}, {Op: OpStopSources}, {Op: OpClose}}
	if err := s.apply(effects, nil); err != nil {
		s.log.Warnf("cleanup: %v", err)
	}
	s.finishRev()
	s.log.Infof("audio released")
}

func (s *Sequencer) revDone() {
	next, effects := planRevDone(s.state, s.snapshot(), s.set)
	s.state = next
	if err := s.apply(effects, nil); err != nil {
		s.log.Errorf("rev completion failed: %v", err)
		s.finishRev()
		return
	}
	s.log.Debugf("rev finished")
}

func (s *Sequencer) stopDone() {
	next, effects := planTail(s.state, s.snapshot())
	s.state = next
	if err := s.apply(effects, nil); err != nil {
		s.log.Warnf("tail failed: %v", err)
		s.graph.StopAll()
	}
}

// finishRev invokes the pending onRevEnd at most once.
func (s *Sequencer) finishRev() {
	fn := s.onRevEnd
	s.onRevEnd = nil
	if fn != nil {
		fn()
	}
}

// restoreLoop undoes a failed rev's duck. It goes by whether the rev
// scheduled one, since the duck ramp may not have sounded yet. A loop the
// rev never touched keeps its envelope.
func (s *Sequencer) restoreLoop() {
	ducked := s.ducked
	s.ducked = false
	if !ducked || !s.graph.Playing(StreamLoop) {
		return
	}
	if err := s.graph.RampGain(StreamLoop, s.set.NormalLoopVolume, s.graph.Now(), s.set.DuckTime.Seconds()); err != nil {
		s.log.Warnf("loop restore: %v", err)
	}
}

func (s *Sequencer) snapshot() Snapshot {
	snap := Snapshot{Now: s.graph.Now(), Closed: s.closed}
	for _, k := range Kinds() {
		snap.Length[k] = s.bank.Get(k).Seconds()
		snap.Playing[k] = s.graph.Playing(k)
		snap.Gain[k] = s.graph.Gain(k)
	}
	return snap
}

// apply runs effects in order and stops at the first failure.
func (s *Sequencer) apply(effects []Effect, onRevStart func()) error {
	for _, e := range effects {
		if err := s.applyOne(e, onRevStart); err != nil {
			return fmt.Errorf("%s %s: %w", e.Op, e.Kind, err)
		}
	}
	return nil
}

func (s *Sequencer) applyOne(e Effect, onRevStart func()) error {
	switch e.Op {
	case OpResume:
		return resumeDevice(s.dev)
	case OpCancelTimers:
		s.timers.CancelAll()
	case OpStopSources:
		s.graph.StopAll()
	case OpPlay:
		return s.graph.Play(e.Kind, s.bank.Get(e.Kind), e.At, e.Gain, e.Loop)
	case OpSetGain:
		return s.graph.SetGain(e.Kind, e.Gain)
	case OpRamp:
		if err := s.graph.RampGain(e.Kind, e.Gain, e.At, e.Span); err != nil {
			return err
		}
		if e.Kind == StreamLoop && s.state.Revving {
			s.ducked = true
		}
	case OpDefer:
		switch e.Event {
		case EventRevDone:
			s.timers.After(e.Delay, s.revDone)
		case EventStopDone:
			s.timers.After(e.Delay, s.stopDone)
		default:
			return fmt.Errorf("%w: cannot defer event %d", ErrScheduling, e.Event)
		}
	case OpNotify:
		switch e.Event {
		case EventRevStart:
			if onRevStart != nil {
				onRevStart()
			}
		case EventRevEnd:
			s.finishRev()
		}
	case OpClose:
		if s.dev != nil {
			return s.dev.Close()
		}
	default:
		return fmt.Errorf("%w: unknown op %d", ErrScheduling, e.Op)
	}
	return nil
}
