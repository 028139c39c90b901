package tonal

import (
	"github.com/RyanBlaney/sonido-clave/algorithms/common"
)

// KeyScores holds the fitness of every major key, indexed by tonic
type KeyScores [NumPitchClasses]float64

// Best returns the tonic with the highest score. Ties go to the earliest key in
// table order and a key is only returned if its score is strictly positive.
func (ks KeyScores) Best() PitchClass {
	idx := common.MaxIdx(ks[:])
	if idx < 0 || ks[idx] <= 0 {
		return NoPitchClass
	}
	return PitchClass(idx)
}

// KeyScorer rates detected notes against the 12 major scales
type KeyScorer struct {
	penalty float64 // Weight applied to out-of-scale energy
}

// NewKeyScorer creates a key scorer with the given out-of-scale penalty
func NewKeyScorer(penalty float64) *KeyScorer {
	return &KeyScorer{penalty: penalty}
}

// Weights sums note amplitudes per pitch class
func (ks *KeyScorer) Weights(notes []DetectedNote) [NumPitchClasses]float64 {
	var weights [NumPitchClasses]float64
	for _, note := range notes {
		if !note.PitchClass.Valid() {
			continue
		}
		weights[note.PitchClass] += note.Amplitude
	}
	return weights
}

// ScoreKeys computes, for every key K,
//
//	score(K) = sum(weight of pitch classes in K) - penalty * sum(weight outside K)
func (ks *KeyScorer) ScoreKeys(notes []DetectedNote) KeyScores {
	weights := ks.Weights(notes)

	var scores KeyScores
	for key := C; key <= B; key++ {
		score := 0.0
		for pc, weight := range weights {
			if weight == 0 {
				continue
			}
			if InMajorScale(key, PitchClass(pc)) {
				score += weight
			} else {
				score -= weight * ks.penalty
			}
		}
		scores[key] = score
	}

	return scores
}

// SelectKey scores all keys and picks the winner, NoPitchClass if none scores above zero
func (ks *KeyScorer) SelectKey(notes []DetectedNote) (PitchClass, KeyScores) {
	scores := ks.ScoreKeys(notes)
	return scores.Best(), scores
}
