package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// DecodeFile reads and decodes a clip, resampled to rate.
func DecodeFile(path string, rate int) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}
	return Decode(filepath.Base(path), data, rate)
}

// Decode detects the container (WAV, Ogg Vorbis or MP3) from the data
// itself and returns a stereo buffer at rate.
func Decode(name string, data []byte, rate int) (*Buffer, error) {
	var (
		samples  []float32
		channels int
		srcRate  int
		err      error
	)
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		samples, channels, srcRate, err = decodeWAV(data)
	case bytes.HasPrefix(data, []byte("OggS")):
		samples, channels, srcRate, err = decodeOgg(data)
	default:
		samples, channels, srcRate, err = decodeMP3(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrAssetUnavailable, name, err)
	}
	if channels <= 0 || srcRate <= 0 || len(samples) < channels {
		return nil, fmt.Errorf("%w: %s has no audio", ErrAssetUnavailable, name)
	}
	stereo := toStereo(samples, channels)
	if srcRate != rate {
		stereo = resample(stereo, srcRate, rate)
	}
	return &Buffer{Name: name, SampleRate: rate, Samples: stereo}, nil
}

func decodeWAV(data []byte) ([]float32, int, int, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("invalid wav file")
	}
	var pcm *goaudio.IntBuffer
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	if pcm.Format == nil {
		return nil, 0, 0, fmt.Errorf("wav has no format chunk")
	}
	depth := int(d.BitDepth)
	if depth <= 0 {
		depth = 16
	}
	scale := float32(int64(1) << (depth - 1))
	bias := 0
	if depth == 8 {
		// 8-bit PCM is unsigned around 128.
		bias = 128
	}
	out := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		out[i] = float32(v-bias) / scale
	}
	return out, pcm.Format.NumChannels, pcm.Format.SampleRate, nil
}

func decodeOgg(data []byte) ([]float32, int, int, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	return samples, format.Channels, format.SampleRate, nil
}

// decodeMP3 reads go-mp3's 16-bit little-endian stereo output.
func decodeMP3(data []byte) ([]float32, int, int, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, 0, 0, err
	}
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}
	return out, 2, d.SampleRate(), nil
}

// toStereo duplicates mono and drops channels beyond the first two.
func toStereo(in []float32, channels int) []float32 {
	if channels == 2 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames*2)
	for f := 0; f < frames; f++ {
		l := in[f*channels]
		r := l
		if channels > 1 {
			r = in[f*channels+1]
		}
		out[f*2], out[f*2+1] = l, r
	}
	return out
}

// resample converts interleaved stereo between rates by linear
// interpolation.
func resample(in []float32, from, to int) []float32 {
	frames := len(in) / 2
	if frames == 0 {
		return in
	}
	n := int(int64(frames) * int64(to) / int64(from))
	out := make([]float32, n*2)
	step := float64(from) / float64(to)
	for i := 0; i < n; i++ {
		pos := float64(i) * step
		j := int(pos)
		frac := float32(pos - float64(j))
		k := j + 1
		if k >= frames {
			k = frames - 1
		}
		out[i*2] = in[j*2] + (in[k*2]-in[j*2])*frac
		out[i*2+1] = in[j*2+1] + (in[k*2+1]-in[j*2+1])*frac
	}
	return out
}
