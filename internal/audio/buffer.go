package audio

import "time"

const (
	SampleRate   = 44100
	ChannelCount = 2
	frameBytes   = 4 * ChannelCount // float32 LE per channel
)

// StreamKind identifies one of the sequencer's overlapping streams.
type StreamKind int

const (
	StreamStart StreamKind = iota
	StreamLoop
	StreamRev
	StreamTail
	numStreams
)

var streamNames = [numStreams]string{"start", "loop", "rev", "tail"}

func (k StreamKind) String() string {
	if k < 0 || k >= numStreams {
		return "unknown"
	}
	return streamNames[k]
}

// Kinds lists every stream in mixing order.
func Kinds() []StreamKind {
	return []StreamKind{StreamStart, StreamLoop, StreamRev, StreamTail}
}

// Buffer is a decoded clip: interleaved stereo float32 at SampleRate.
// Buffers are never mutated after decoding and may be shared freely.
type Buffer struct {
	Name       string
	SampleRate int
	Samples    []float32
}

// Frames is the number of stereo frames.
func (b *Buffer) Frames() int {
	if b == nil {
		return 0
	}
	return len(b.Samples) / ChannelCount
}

// Seconds is the clip length on the audio clock.
func (b *Buffer) Seconds() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Duration is the clip length as a wall-clock duration.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// LoopRegion bounds a looping source in seconds from the clip start.
// A disabled region plays the clip once.
type LoopRegion struct {
	Enabled    bool
	Start, End float64
}

// TrimmedLoop loops a clip of the given length between trim and
// length-trim. Clips too short to trim loop end to end.
func TrimmedLoop(length, trim float64) LoopRegion {
	start, end := trim, length-trim
	if trim <= 0 || end <= start {
		start, end = 0, length
	}
	return LoopRegion{Enabled: true, Start: start, End: end}
}
