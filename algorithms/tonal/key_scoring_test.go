package tonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func notesOf(amplitude float64, pcs ...PitchClass) []DetectedNote {
	notes := make([]DetectedNote, len(pcs))
	for i, pc := range pcs {
		notes[i] = DetectedNote{PitchClass: pc, Amplitude: amplitude}
	}
	return notes
}

func TestNoteQuantizerExactReference(t *testing.T) {
	nq := NewNoteQuantizer(DefaultMatchTolerance)

	pc, ok := nq.Quantize(440.0)
	assert.True(t, ok)
	assert.Equal(t, A, pc)

	for _, want := range PitchClasses() {
		for _, ref := range ReferenceFrequencies(want) {
			got, ok := nq.Quantize(ref)
			assert.True(t, ok)
			assert.Equal(t, want, got, "%.2f Hz", ref)
		}
	}
}

func TestNoteQuantizerToleranceIsStrictAndAbsolute(t *testing.T) {
	nq := NewNoteQuantizer(DefaultMatchTolerance)

	_, ok := nq.Quantize(450.0) // exactly 10 Hz above A4, 16.16 Hz below A#4
	assert.False(t, ok)

	pc, ok := nq.Quantize(449.99)
	assert.True(t, ok)
	assert.Equal(t, A, pc)

	// The same absolute window applies at the top of the table
	pc, ok = nq.Quantize(1985.0)
	assert.True(t, ok)
	assert.Equal(t, B, pc)

	for _, f := range []float64{0, 20, 55.4, 2000, 5000} {
		_, ok := nq.Quantize(f)
		assert.False(t, ok, "%.2f Hz", f)
	}
}

func TestNoteQuantizerTieGoesToFirstInTableOrder(t *testing.T) {
	nq := NewNoteQuantizer(DefaultMatchTolerance)

	// 190.5 Hz is exactly 5.5 Hz from both F#3 (185) and G3 (196)
	pc, ok := nq.Quantize(190.5)
	assert.True(t, ok)
	assert.Equal(t, FSharp, pc)

	// 95.25 Hz is exactly 2.75 Hz from both F#2 (92.5) and G2 (98)
	pc, ok = nq.Quantize(95.25)
	assert.True(t, ok)
	assert.Equal(t, FSharp, pc)
}

func TestNoteQuantizerCustomTolerance(t *testing.T) {
	nq := NewNoteQuantizer(1.0)
	assert.Equal(t, 1.0, nq.Tolerance())

	_, ok := nq.Quantize(442.0)
	assert.False(t, ok)

	pc, ok := nq.Quantize(440.5)
	assert.True(t, ok)
	assert.Equal(t, A, pc)
}

func TestScoreKeysFormula(t *testing.T) {
	ks := NewKeyScorer(DefaultOutOfScalePenalty)
	notes := []DetectedNote{
		{PitchClass: C, Amplitude: 100},
		{PitchClass: E, Amplitude: 60},
		{PitchClass: C, Amplitude: 20},
		{PitchClass: FSharp, Amplitude: 80},
	}

	weights := ks.Weights(notes)
	assert.Equal(t, 120.0, weights[C])
	assert.Equal(t, 60.0, weights[E])
	assert.Equal(t, 80.0, weights[FSharp])

	scores := ks.ScoreKeys(notes)
	assert.InDelta(t, 120+60-0.5*80, scores[C], 1e-9)        // C, E in; F# out
	assert.InDelta(t, 120+60+80, scores[G], 1e-9)            // all in
	assert.InDelta(t, 60+80-0.5*120, scores[D], 1e-9)        // E, F# in; C out
	assert.InDelta(t, 120-0.5*(60+80), scores[GSharp], 1e-9) // C in; E, F# out
	assert.Equal(t, G, scores.Best())
}

func TestScoreKeysIgnoresNoteOrder(t *testing.T) {
	ks := NewKeyScorer(DefaultOutOfScalePenalty)
	notes := []DetectedNote{
		{PitchClass: D, Amplitude: 90},
		{PitchClass: FSharp, Amplitude: 140},
		{PitchClass: A, Amplitude: 75},
		{PitchClass: C, Amplitude: 60},
		{PitchClass: D, Amplitude: 30},
	}
	reversed := make([]DetectedNote, len(notes))
	for i, n := range notes {
		reversed[len(notes)-1-i] = n
	}
	rotated := append(append([]DetectedNote{}, notes[2:]...), notes[:2]...)

	key, scores := ks.SelectKey(notes)
	for _, perm := range [][]DetectedNote{reversed, rotated} {
		k, s := ks.SelectKey(perm)
		assert.Equal(t, key, k)
		assert.Equal(t, scores, s)
	}
}

func TestSelectKeyTieKeepsTableOrder(t *testing.T) {
	ks := NewKeyScorer(DefaultOutOfScalePenalty)

	// C and G are both in C, F and G major; all three score 200
	key, scores := ks.SelectKey(notesOf(100, C, G))
	assert.Equal(t, 200.0, scores[C])
	assert.Equal(t, 200.0, scores[F])
	assert.Equal(t, 200.0, scores[G])
	assert.Equal(t, C, key)
}

func TestSelectKeyRequiresPositiveScore(t *testing.T) {
	ks := NewKeyScorer(DefaultOutOfScalePenalty)

	key, scores := ks.SelectKey(nil)
	assert.Equal(t, NoPitchClass, key)
	assert.Equal(t, KeyScores{}, scores)

	key, _ = ks.SelectKey(notesOf(0, C, E, G))
	assert.Equal(t, NoPitchClass, key)

	// With a steep penalty a fully chromatic frame favours no key: 7w - 2*5w < 0
	steep := NewKeyScorer(2.0)
	all := PitchClasses()
	key, scores = steep.SelectKey(notesOf(100, all[:]...))
	assert.Equal(t, NoPitchClass, key)
	for _, s := range scores {
		assert.InDelta(t, -300.0, s, 1e-9)
	}
}

func TestSelectKeyPenaltyCoefficient(t *testing.T) {
	// One loud F# against the C major scale: G overtakes C once F# > 200
	notes := notesOf(200, C, D, E, F, G, A, B)
	notes = append(notes, DetectedNote{PitchClass: FSharp, Amplitude: 201})

	key, scores := NewKeyScorer(0.5).SelectKey(notes)
	assert.Equal(t, G, key)
	assert.InDelta(t, 1400-0.5*201, scores[C], 1e-9)
	assert.InDelta(t, 1200+201-0.5*200, scores[G], 1e-9)

	// Without a penalty C keeps 1400 but G gains F# and wins outright
	key, _ = NewKeyScorer(0).SelectKey(notes)
	assert.Equal(t, G, key)

	notes[len(notes)-1].Amplitude = 199
	key, _ = NewKeyScorer(0.5).SelectKey(notes)
	assert.Equal(t, C, key)
}

func TestConfidence(t *testing.T) {
	assert.Zero(t, Confidence(nil, C))
	assert.Zero(t, Confidence(notesOf(100, C, D), NoPitchClass))
	assert.Equal(t, 100, Confidence(notesOf(100, C, D, E, F, G, A, B), C))
	assert.Equal(t, 33, Confidence(notesOf(100, C, CSharp, DSharp), C))
	assert.Equal(t, 67, Confidence(notesOf(100, C, D, DSharp), C))
	assert.Zero(t, Confidence(notesOf(100, CSharp, DSharp), C))

	// Occurrences, not amplitudes
	loudOffScale := []DetectedNote{
		{PitchClass: C, Amplitude: 1},
		{PitchClass: FSharp, Amplitude: 1000},
	}
	assert.Equal(t, 50, Confidence(loudOffScale, C))
}
