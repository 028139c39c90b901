package tonal

import (
	"math"
)

// NoteQuantizer maps frequencies onto the nearest reference pitch
type NoteQuantizer struct {
	tolerance float64 // Absolute match window in Hz, identical for every octave
}

// NewNoteQuantizer creates a quantizer with the given match window in Hz
func NewNoteQuantizer(tolerance float64) *NoteQuantizer {
	return &NoteQuantizer{tolerance: tolerance}
}

// Quantize returns the pitch class whose reference frequency is closest to
// frequency, provided the distance is strictly below the tolerance.
//
// The scan visits pitch classes in table order and octaves lowest first; on
// equal distances the first candidate seen is kept.
func (nq *NoteQuantizer) Quantize(frequency float64) (PitchClass, bool) {
	closest := NoPitchClass
	minDifference := math.Inf(1)

	for pc := C; pc <= B; pc++ {
		for _, ref := range noteFrequencies[pc] {
			difference := math.Abs(frequency - ref)
			if difference < minDifference && difference < nq.tolerance {
				minDifference = difference
				closest = pc
			}
		}
	}

	return closest, closest.Valid()
}

// Tolerance returns the match window in Hz
func (nq *NoteQuantizer) Tolerance() float64 {
	return nq.tolerance
}
