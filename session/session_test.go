package session

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-clave/algorithms/spectral"
	"github.com/RyanBlaney/sonido-clave/algorithms/tonal"
	"github.com/RyanBlaney/sonido-clave/config"
	"github.com/RyanBlaney/sonido-clave/logging"
)

const (
	testSampleRate = 44100
	testBlockSize  = 2048
)

// Bins of G, B, D, F#, A, C and E at 44100 Hz / 2048; all inside G major
var gMajorBins = []int{18, 23, 27, 34, 41, 49, 61}

// bandTones sums equal sines centred on the given analyser bins. Centred tones
// complete whole cycles per block, so every block sees the same spectrum.
func bandTones(samples int, bins []int) []float64 {
	pcm := make([]float64, samples)
	for n := range pcm {
		for _, k := range bins {
			pcm[n] += 0.01 * math.Sin(2*math.Pi*float64(k*n)/testBlockSize)
		}
	}
	return pcm
}

func newTestAnalyzer() *Analyzer {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
	return NewAnalyzer(tonal.NewKeyDetector(), spectral.DefaultAnalyserConfig(), config.DefaultDisplayConfig())
}

func TestRunDetectsKeyInEveryBlock(t *testing.T) {
	a := newTestAnalyzer()
	pcm := bandTones(3*testBlockSize+500, gMajorBins)

	var reports []FrameReport
	summary, err := a.Run(context.Background(), pcm, testSampleRate, func(r FrameReport) error {
		reports = append(reports, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, reports, 3)
	for i, r := range reports {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, tonal.G, r.Result.Key, "block %d", i)
		assert.Equal(t, 100, r.Result.Confidence, "block %d", i)
		assert.Len(t, r.Result.Notes, len(gMajorBins), "block %d", i)
		assert.True(t, r.Displayable)
	}
	assert.Zero(t, reports[0].Offset)
	assert.Greater(t, reports[1].Offset, reports[0].Offset)

	assert.Equal(t, 3, summary.Frames)
	assert.Equal(t, 3, summary.DisplayableFrames)
	assert.Equal(t, tonal.G, summary.Key)
	assert.Equal(t, 3, summary.KeyVotes[tonal.G])
	assert.InDelta(t, 100.0, summary.MeanConfidence, 1e-9)
	assert.Equal(t, []string{"G", "Am", "Bm", "C", "D", "Em", "F#dim"}, summary.SuggestedChords)
}

func TestRunSilenceHasNoKey(t *testing.T) {
	a := newTestAnalyzer()

	summary, err := a.Run(context.Background(), make([]float64, 2*testBlockSize), testSampleRate, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Frames)
	assert.Zero(t, summary.DisplayableFrames)
	assert.Equal(t, tonal.NoPitchClass, summary.Key)
	assert.Zero(t, summary.MeanConfidence)
	assert.Empty(t, summary.SuggestedChords)
}

func TestRunShortInputHasNoFrames(t *testing.T) {
	a := newTestAnalyzer()

	summary, err := a.Run(context.Background(), bandTones(testBlockSize-1, gMajorBins), testSampleRate, nil)
	require.NoError(t, err)
	assert.Zero(t, summary.Frames)
	assert.Equal(t, tonal.NoPitchClass, summary.Key)
}

func TestRunRejectsBadSampleRate(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.Run(context.Background(), make([]float64, testBlockSize), 0, nil)
	assert.ErrorIs(t, err, tonal.ErrInvalidInput)
}

func TestRunStopsOnCallbackError(t *testing.T) {
	a := newTestAnalyzer()
	stop := errors.New("stop")

	calls := 0
	summary, err := a.Run(context.Background(), bandTones(3*testBlockSize, gMajorBins), testSampleRate, func(FrameReport) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, summary.Frames)
}

func TestRunHonoursCancellation(t *testing.T) {
	a := newTestAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())

	_, err := a.Run(ctx, bandTones(3*testBlockSize, gMajorBins), testSampleRate, func(FrameReport) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAnalyzerFromConfig(t *testing.T) {
	cfg := config.Default()
	a, err := NewAnalyzerFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, a)

	cfg.Detector.MatchTolerance = 0
	_, err = NewAnalyzerFromConfig(cfg)
	assert.ErrorIs(t, err, tonal.ErrInvalidInput)
}

func TestMostVoted(t *testing.T) {
	var votes [tonal.NumPitchClasses]int
	assert.Equal(t, tonal.NoPitchClass, mostVoted(votes))

	votes[tonal.D] = 2
	votes[tonal.A] = 2
	votes[tonal.E] = 1
	assert.Equal(t, tonal.D, mostVoted(votes))
}
