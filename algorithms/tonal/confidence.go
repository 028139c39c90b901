package tonal

import (
	"math"
)

// Confidence returns the percentage (0-100) of detected notes that belong to
// the scale of key. It counts note occurrences and ignores amplitudes.
func Confidence(notes []DetectedNote, key PitchClass) int {
	if !key.Valid() || len(notes) == 0 {
		return 0
	}

	inScale := 0
	for _, note := range notes {
		if InMajorScale(key, note.PitchClass) {
			inScale++
		}
	}

	return int(math.Round(float64(inScale) / float64(len(notes)) * 100))
}
