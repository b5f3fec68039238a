package audio

import "errors"

var (
	// ErrAssetUnavailable means a clip failed to load or decode. The stream
	// that needs it is skipped; the rest of the sequencer keeps working.
	ErrAssetUnavailable = errors.New("audio asset unavailable")

	// ErrDeviceSuspended is returned when the output device stays suspended
	// after a resume retry.
	ErrDeviceSuspended = errors.New("audio device suspended")

	// ErrInvalidTransition marks an operation ignored in the current engine
	// state, e.g. a rev while stopped. It is only ever logged.
	ErrInvalidTransition = errors.New("invalid engine transition")

	// ErrScheduling wraps a failure while starting sources or scheduling
	// gain ramps. The operation that hit it is rolled back.
	ErrScheduling = errors.New("audio scheduling failed")

	// ErrClosed is returned by operations on a cleaned-up sequencer.
	ErrClosed = errors.New("audio sequencer closed")
)
