package harmonic

// SpectralPeak represents a detected spectral peak
type SpectralPeak struct {
	Frequency float64 // Peak frequency in Hz
	Magnitude float64 // Peak magnitude, in the caller's units
	BinIndex  int     // Original FFT bin index
}

// SpectralPeaks finds local maxima in a magnitude spectrum
type SpectralPeaks struct {
	sampleRate int
	noiseFloor float64 // Peaks must be strictly louder than this
}

// NewSpectralPeaks creates a new spectral peaks analyzer
func NewSpectralPeaks(sampleRate int, noiseFloor float64) *SpectralPeaks {
	return &SpectralPeaks{
		sampleRate: sampleRate,
		noiseFloor: noiseFloor,
	}
}

// BinSize returns the bin width in Hz for a spectrum of binCount bins.
// The spectrum is taken to cover 0..sampleRate/2.
func (sp *SpectralPeaks) BinSize(binCount int) float64 {
	if binCount == 0 {
		return 0
	}
	return float64(sp.sampleRate) / float64(2*binCount)
}

// DetectPeaks returns every interior bin that is strictly greater than both
// neighbours and than the noise floor, in ascending bin order.
//
// The first and last bins are never peaks. Adjacent peaks are not merged and
// no minimum spacing is enforced.
func (sp *SpectralPeaks) DetectPeaks(magnitudeSpectrum []float64) []SpectralPeak {
	peaks := []SpectralPeak{}
	if len(magnitudeSpectrum) < 3 {
		return peaks
	}

	binSize := sp.BinSize(len(magnitudeSpectrum))

	for i := 1; i < len(magnitudeSpectrum)-1; i++ {
		amplitude := magnitudeSpectrum[i]
		if amplitude > sp.noiseFloor &&
			amplitude > magnitudeSpectrum[i-1] &&
			amplitude > magnitudeSpectrum[i+1] {
			peaks = append(peaks, SpectralPeak{
				Frequency: float64(i) * binSize,
				Magnitude: amplitude,
				BinIndex:  i,
			})
		}
	}

	return peaks
}
