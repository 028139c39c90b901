package harmonic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binIndices(peaks []SpectralPeak) []int {
	idx := make([]int, len(peaks))
	for i, p := range peaks {
		idx[i] = p.BinIndex
	}
	return idx
}

func TestDetectPeaksTooFewBins(t *testing.T) {
	sp := NewSpectralPeaks(44100, 50)

	for _, spectrum := range [][]float64{nil, {}, {200}, {0, 200}, {200, 0}} {
		peaks := sp.DetectPeaks(spectrum)
		assert.NotNil(t, peaks)
		assert.Empty(t, peaks, "%v", spectrum)
	}
}

func TestDetectPeaksSingleInteriorBin(t *testing.T) {
	sp := NewSpectralPeaks(48000, 50)

	peaks := sp.DetectPeaks([]float64{0, 51, 0})
	require.Len(t, peaks, 1)
	assert.Equal(t, 1, peaks[0].BinIndex)
	assert.Equal(t, 51.0, peaks[0].Magnitude)
	assert.InDelta(t, 8000.0, peaks[0].Frequency, 1e-9) // 48000 / (2*3)
}

func TestDetectPeaksNoiseFloorIsStrict(t *testing.T) {
	sp := NewSpectralPeaks(44100, 50)

	assert.Empty(t, sp.DetectPeaks([]float64{0, 50, 0}))
	assert.Len(t, sp.DetectPeaks([]float64{0, 50.5, 0}), 1)
}

func TestDetectPeaksRequiresStrictLocalMaximum(t *testing.T) {
	sp := NewSpectralPeaks(44100, 50)

	// Plateaus have no strict maximum
	assert.Empty(t, sp.DetectPeaks([]float64{0, 100, 100, 0}))

	// Boundary bins are never considered
	assert.Empty(t, sp.DetectPeaks([]float64{255, 0, 0, 255}))

	// Rising edge into the last bin
	assert.Empty(t, sp.DetectPeaks([]float64{0, 100, 200}))
}

func TestDetectPeaksKeepsAdjacentPeaksInBinOrder(t *testing.T) {
	sp := NewSpectralPeaks(44100, 50)
	spectrum := []float64{0, 80, 60, 90, 10, 200, 199, 250, 0}

	peaks := sp.DetectPeaks(spectrum)
	assert.Equal(t, []int{1, 3, 5, 7}, binIndices(peaks))

	binSize := sp.BinSize(len(spectrum))
	for i := 1; i < len(peaks); i++ {
		assert.Greater(t, peaks[i].Frequency, peaks[i-1].Frequency)
		assert.InDelta(t, float64(peaks[i].BinIndex)*binSize, peaks[i].Frequency, 1e-9)
	}
}

func TestBinSize(t *testing.T) {
	sp := NewSpectralPeaks(44100, 50)

	assert.InDelta(t, 44100.0/2048.0, sp.BinSize(1024), 1e-12)
	assert.Zero(t, sp.BinSize(0))
}
