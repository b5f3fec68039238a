package audio

import (
	"encoding/binary"
	"math"
)

// putStereoF32 writes left/right samples as float32 LE at frame i.
func putStereoF32(buf []byte, i int, left, right float32) {
	binary.LittleEndian.PutUint32(buf[i*frameBytes:], math.Float32bits(left))
	binary.LittleEndian.PutUint32(buf[i*frameBytes+4:], math.Float32bits(right))
}

const satKnee = 0.6

// softSat passes samples below the knee untouched and bends louder ones
// smoothly towards +-1. Value and slope are continuous at the knee.
func softSat(x float64) float64 {
	a := math.Abs(x)
	if a <= satKnee {
		return x
	}
	y := satKnee + (1-satKnee)*math.Tanh((a-satKnee)/(1-satKnee))
	return math.Copysign(y, x)
}

// adsr returns an envelope at normalized progress [0,1].
// attack/decay/release are fractions of the total duration.
func adsr(progress, attack, decay, sustain, release float64) float64 {
	switch {
	case progress < attack:
		return progress / attack
	case progress < attack+decay:
		return 1.0 - (progress-attack)/decay*(1.0-sustain)
	case progress < 1.0-release:
		return sustain
	default:
		return sustain * (1.0 - (progress-(1.0-release))/release)
	}
}

// fmPhase is an FM operator driven by an accumulated carrier phase, so the
// carrier frequency can sweep without clicks.
func fmPhase(phase, modRatio, modIdx float64) float64 {
	return math.Sin(phase + modIdx*math.Sin(phase*modRatio))
}

// lcg advances an LCG seed and returns a noise sample in [-1,1].
func lcg(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64(int64(*seed>>33)-int64(1<<30)) / float64(1<<30)
}
