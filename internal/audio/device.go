package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/hajimehoshi/oto/v2"
)

// Device is an output device pulling from a Mixer. A device starts
// suspended; the sequencer resumes it on the first user action.
type Device interface {
	Suspended() bool
	Resume() error
	Suspend() error
	Close() error
}

// OtoDevice plays the mixer through an oto context.
type OtoDevice struct {
	mu        sync.Mutex
	ctx       *oto.Context
	player    oto.Player
	started   bool
	suspended bool
	closed    bool
}

// NewOtoDevice opens the default output through oto and waits until it is
// ready. bufferFrames sets the player's buffer; zero keeps oto's default.
func NewOtoDevice(m *Mixer, bufferFrames int) (*OtoDevice, error) {
	ctx, ready, err := oto.NewContext(m.SampleRate(), ChannelCount, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("open oto context: %w", err)
	}
	<-ready
	player := ctx.NewPlayer(m)
	if bufferFrames > 0 {
		if p, ok := player.(interface{ SetBufferSize(int) }); ok {
			p.SetBufferSize(bufferFrames * frameBytes)
		}
	}
	return &OtoDevice{ctx: ctx, player: player, suspended: true}, nil
}

func (d *OtoDevice) Suspended() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.suspended
}

func (d *OtoDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceSuspended
	}
	if err := d.ctx.Resume(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceSuspended, err)
	}
	if !d.started {
		d.player.Play()
		d.started = true
	}
	if err := d.player.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceSuspended, err)
	}
	d.suspended = false
	return nil
}

func (d *OtoDevice) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.suspended {
		return nil
	}
	if err := d.ctx.Suspend(); err != nil {
		return fmt.Errorf("suspend oto context: %w", err)
	}
	d.suspended = true
	return nil
}

// Close stops the player and suspends the context. oto contexts live for
// the whole process, so this is as far as release goes.
func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.suspended = true
	err := d.player.Close()
	if serr := d.ctx.Suspend(); err == nil && serr != nil {
		err = serr
	}
	if err != nil {
		return fmt.Errorf("close oto device: %w", err)
	}
	return nil
}

// PortAudioDevice plays the mixer through a PortAudio callback stream.
type PortAudioDevice struct {
	mu        sync.Mutex
	stream    *portaudio.Stream
	suspended bool
	closed    bool
}

// NewPortAudioDevice initializes PortAudio and opens a stereo output stream
// on the default device. The stream is not started until Resume.
func NewPortAudioDevice(m *Mixer, framesPerBuffer int) (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	if framesPerBuffer <= 0 {
		framesPerBuffer = 512
	}
	stream, err := portaudio.OpenDefaultStream(0, ChannelCount, float64(m.SampleRate()), framesPerBuffer, m.Mix)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}
	return &PortAudioDevice{stream: stream, suspended: true}, nil
}

func (d *PortAudioDevice) Suspended() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.suspended
}

func (d *PortAudioDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceSuspended
	}
	if !d.suspended {
		return nil
	}
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceSuspended, err)
	}
	d.suspended = false
	return nil
}

func (d *PortAudioDevice) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.suspended {
		return nil
	}
	if err := d.stream.Stop(); err != nil {
		return fmt.Errorf("stop portaudio stream: %w", err)
	}
	d.suspended = true
	return nil
}

func (d *PortAudioDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if !d.suspended {
		d.stream.Stop()
		d.suspended = true
	}
	err := d.stream.Close()
	if terr := portaudio.Terminate(); err == nil && terr != nil {
		err = terr
	}
	if err != nil {
		return fmt.Errorf("close portaudio device: %w", err)
	}
	return nil
}

// resumeDevice resumes a suspended device, retrying once.
func resumeDevice(d Device) error {
	if d == nil || !d.Suspended() {
		return nil
	}
	if err := d.Resume(); err == nil {
		return nil
	}
	if err := d.Resume(); err != nil {
		return err
	}
	return nil
}
