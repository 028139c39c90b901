package tonal

// SuggestChords returns the diatonic triads of the major key on key, in degree
// order I, ii, iii, IV, V, vi, vii°. The result is a fresh slice; it is empty
// when no key was detected.
func SuggestChords(key PitchClass) []string {
	if !key.Valid() {
		return []string{}
	}

	row := diatonicChords[key]
	chords := make([]string, len(row))
	copy(chords, row[:])
	return chords
}
