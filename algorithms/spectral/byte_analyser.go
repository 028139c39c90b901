package spectral

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"

	"github.com/RyanBlaney/sonido-clave/algorithms/common"
)

// AnalyserConfig mirrors the settings of a browser-style analyser node
type AnalyserConfig struct {
	FFTSize               int     `json:"fft_size"`                // Samples per block, power of two
	SmoothingTimeConstant float64 `json:"smoothing_time_constant"` // 0 = no smoothing, <1
	MinDecibels           float64 `json:"min_decibels"`            // Maps to byte 0
	MaxDecibels           float64 `json:"max_decibels"`            // Maps to byte 255
}

// DefaultAnalyserConfig returns the settings the key detector was tuned with
func DefaultAnalyserConfig() AnalyserConfig {
	return AnalyserConfig{
		FFTSize:               2048,
		SmoothingTimeConstant: 0.3,
		MinDecibels:           -100,
		MaxDecibels:           -30,
	}
}

// Validate checks the analyser settings
func (c AnalyserConfig) Validate() error {
	if c.FFTSize < 32 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a power of two >= 32: %d", c.FFTSize)
	}
	if c.SmoothingTimeConstant < 0 || c.SmoothingTimeConstant >= 1 {
		return fmt.Errorf("smoothing time constant must be in [0, 1): %v", c.SmoothingTimeConstant)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("min decibels (%v) must be below max decibels (%v)", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// ByteAnalyser turns blocks of PCM samples into byte-scaled magnitude
// spectra (0-255), the input format the key detector expects.
//
// Smoothing carries state from one block to the next, so a ByteAnalyser must
// not be shared between goroutines or between unrelated streams.
type ByteAnalyser struct {
	config   AnalyserConfig
	fft      *FFT
	window   []float64
	smoothed []float64
}

// NewByteAnalyser creates an analyser with a periodic Blackman window
func NewByteAnalyser(config AnalyserConfig) (*ByteAnalyser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ByteAnalyser{
		config:   config,
		fft:      NewFFT(),
		window:   periodicBlackman(config.FFTSize),
		smoothed: make([]float64, config.FFTSize/2),
	}, nil
}

// periodicBlackman returns the size-n Blackman window that divides by n, as
// browser analysers use. go-dsp builds the symmetric form (divides by n-1), so
// take the first n points of a window one sample longer.
func periodicBlackman(n int) []float64 {
	return window.Blackman(n + 1)[:n]
}

// FrequencyBinCount returns the number of bins produced per block
func (ba *ByteAnalyser) FrequencyBinCount() int {
	return ba.config.FFTSize / 2
}

// Reset clears the smoothing history
func (ba *ByteAnalyser) Reset() {
	for i := range ba.smoothed {
		ba.smoothed[i] = 0
	}
}

// FloatFrequencyData returns the smoothed spectrum of block in dB
func (ba *ByteAnalyser) FloatFrequencyData(block []float64) ([]float64, error) {
	if len(block) != ba.config.FFTSize {
		return nil, fmt.Errorf("block has %d samples, analyser expects %d", len(block), ba.config.FFTSize)
	}

	windowed := make([]float64, len(block))
	for i, s := range block {
		windowed[i] = s * ba.window[i]
	}

	mags := ba.fft.Magnitudes(windowed, ba.FrequencyBinCount())
	common.Scale(1/float64(ba.config.FFTSize), mags)

	tau := ba.config.SmoothingTimeConstant
	db := make([]float64, len(mags))
	for k, mag := range mags {
		ba.smoothed[k] = tau*ba.smoothed[k] + (1-tau)*mag
		// log10(0) is -Inf, which clamps to byte 0 below
		db[k] = 20 * math.Log10(ba.smoothed[k])
	}

	return db, nil
}

// ByteFrequencyData returns the smoothed spectrum of block scaled to 0-255
// between MinDecibels and MaxDecibels
func (ba *ByteAnalyser) ByteFrequencyData(block []float64) ([]byte, error) {
	db, err := ba.FloatFrequencyData(block)
	if err != nil {
		return nil, err
	}

	scale := 255 / (ba.config.MaxDecibels - ba.config.MinDecibels)
	out := make([]byte, len(db))
	for k, v := range db {
		scaled := math.Floor(scale * (v - ba.config.MinDecibels))
		out[k] = byte(common.Clamp(scaled, 0, 255))
	}

	return out, nil
}
