package tonal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitchClassNames(t *testing.T) {
	want := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	for i, pc := range PitchClasses() {
		assert.Equal(t, want[i], pc.String())
		assert.True(t, pc.Valid())
	}
	assert.False(t, NoPitchClass.Valid())
	assert.Equal(t, "", NoPitchClass.String())
}

func TestParsePitchClass(t *testing.T) {
	cases := map[string]PitchClass{
		"C":   C,
		"c#":  CSharp,
		" G ": G,
		"Bb":  ASharp,
		"Gb":  FSharp,
		"A#":  ASharp,
	}
	for in, want := range cases {
		got, err := ParsePitchClass(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "H", "Cb", "C##"} {
		_, err := ParsePitchClass(in)
		assert.ErrorIs(t, err, ErrInvalidInput, in)
	}
}

func TestPitchClassJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Key   PitchClass `json:"key"`
		Other PitchClass `json:"other"`
	}{FSharp, NoPitchClass})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"F#","other":null}`, string(data))

	var decoded struct {
		Key   PitchClass `json:"key"`
		Other PitchClass `json:"other"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, FSharp, decoded.Key)
	assert.Equal(t, NoPitchClass, decoded.Other)

	assert.Error(t, json.Unmarshal([]byte(`{"key":"X"}`), &decoded))
}

func TestReferenceTablesShape(t *testing.T) {
	for _, pc := range PitchClasses() {
		refs := ReferenceFrequencies(pc)
		for i := 1; i < len(refs); i++ {
			assert.InDelta(t, refs[i-1]*2, refs[i], 0.02, "%s octave %d", pc, i)
		}

		scale := MajorScale(pc)
		assert.Equal(t, pc, scale[0], "scale of %s starts on its tonic", pc)

		members := 0
		for _, other := range PitchClasses() {
			if InMajorScale(pc, other) {
				members++
			}
		}
		assert.Equal(t, 7, members, "scale of %s", pc)

		chords := SuggestChords(pc)
		require.Len(t, chords, 7)
		assert.Equal(t, pc.String(), chords[0])
	}

	assert.Equal(t, [5]float64{110, 220, 440, 880, 1760}, ReferenceFrequencies(A))
	assert.False(t, InMajorScale(C, FSharp))
	assert.True(t, InMajorScale(G, FSharp))
	assert.False(t, InMajorScale(NoPitchClass, C))
	assert.Equal(t, [5]float64{}, ReferenceFrequencies(NoPitchClass))
}

func TestSuggestChords(t *testing.T) {
	assert.Equal(t, []string{}, SuggestChords(NoPitchClass))
	assert.Equal(t, []string{"C", "Dm", "Em", "F", "G", "Am", "Bdim"}, SuggestChords(C))
	assert.Equal(t, []string{"A#", "Cm", "Dm", "D#", "F", "Gm", "Adim"}, SuggestChords(ASharp))

	// Callers get a copy; the table itself never changes
	chords := SuggestChords(D)
	chords[0] = "X"
	assert.Equal(t, "D", SuggestChords(D)[0])
}
