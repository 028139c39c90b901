package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real signal using mjibson/go-dsp
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles non-power-of-2 sizes as well
	return fft.FFTReal(x)
}

// Magnitudes returns |X[k]| for the first n bins of the spectrum of x
func (f *FFT) Magnitudes(x []float64, n int) []float64 {
	spectrum := f.Compute(x)
	n = min(n, len(spectrum))

	mags := make([]float64, n)
	for k := range n {
		mags[k] = cmplx.Abs(spectrum[k])
	}
	return mags
}
