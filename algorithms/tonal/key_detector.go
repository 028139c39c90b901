package tonal

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-clave/algorithms/harmonic"
)

// Default detection constants, overridable through KeyDetectionParams
const (
	DefaultNoiseFloor        = 50.0 // On the caller's 0-255 magnitude scale
	DefaultMatchTolerance    = 10.0 // Hz
	DefaultOutOfScalePenalty = 0.5
)

// ErrInvalidInput is returned for calls that violate the input contract
var ErrInvalidInput = errors.New("invalid input")

// SpectrumFrame is one magnitude spectrum as delivered by the caller
type SpectrumFrame struct {
	Bins       []float64 `json:"bins"`        // Finite non-negative magnitudes, typically 0-255
	SampleRate int       `json:"sample_rate"` // Hz
}

// NewByteSpectrumFrame wraps byte-scaled magnitudes in a frame
func NewByteSpectrumFrame(data []byte, sampleRate int) SpectrumFrame {
	bins := make([]float64, len(data))
	for i, v := range data {
		bins[i] = float64(v)
	}
	return SpectrumFrame{Bins: bins, SampleRate: sampleRate}
}

// BinSize returns the width of one bin in Hz
func (sf SpectrumFrame) BinSize() float64 {
	if len(sf.Bins) == 0 {
		return 0
	}
	return float64(sf.SampleRate) / float64(2*len(sf.Bins))
}

// Validate checks the frame against the input contract
func (sf SpectrumFrame) Validate() error {
	if sf.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidInput, sf.SampleRate)
	}
	for i, v := range sf.Bins {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bin %d has magnitude %v", ErrInvalidInput, i, v)
		}
	}
	return nil
}

// DetectedNote is a spectral peak that matched a reference pitch
type DetectedNote struct {
	PitchClass PitchClass `json:"note"`
	Frequency  float64    `json:"frequency"` // Bin frequency in Hz, not the reference pitch
	Amplitude  float64    `json:"amplitude"`
}

// AnalysisResult is the outcome of analysing one frame
type AnalysisResult struct {
	Key             PitchClass     `json:"key"`        // NoPitchClass when no key scored above zero
	Notes           []DetectedNote `json:"notes"`      // In ascending frequency order
	Confidence      int            `json:"confidence"` // Percentage 0-100
	SuggestedChords []string       `json:"suggested_chords"`
	Scores          KeyScores      `json:"scores"` // Fitness of each key in table order
}

// HasKey reports whether a key was detected
func (ar AnalysisResult) HasKey() bool {
	return ar.Key.Valid()
}

// KeyDetectionParams contains the tunable constants of the pipeline
type KeyDetectionParams struct {
	NoiseFloor        float64 `json:"noise_floor"`          // Peaks must exceed this magnitude
	MatchTolerance    float64 `json:"match_tolerance_hz"`   // Absolute frequency window
	OutOfScalePenalty float64 `json:"out_of_scale_penalty"` // Weight of out-of-scale energy
}

// DefaultKeyDetectionParams returns the stock constants
func DefaultKeyDetectionParams() KeyDetectionParams {
	return KeyDetectionParams{
		NoiseFloor:        DefaultNoiseFloor,
		MatchTolerance:    DefaultMatchTolerance,
		OutOfScalePenalty: DefaultOutOfScalePenalty,
	}
}

// Validate checks that the params describe a usable detector
func (p KeyDetectionParams) Validate() error {
	if p.NoiseFloor < 0 {
		return fmt.Errorf("%w: noise floor must not be negative, got %v", ErrInvalidInput, p.NoiseFloor)
	}
	if p.MatchTolerance <= 0 {
		return fmt.Errorf("%w: match tolerance must be positive, got %v", ErrInvalidInput, p.MatchTolerance)
	}
	if p.OutOfScalePenalty < 0 {
		return fmt.Errorf("%w: out-of-scale penalty must not be negative, got %v", ErrInvalidInput, p.OutOfScalePenalty)
	}
	return nil
}

// KeyDetector runs peak extraction, note quantization, key scoring,
// confidence and chord lookup over single spectrum frames.
//
// A KeyDetector is never modified after construction and may be shared by any
// number of goroutines. Frames are analysed independently of each other.
type KeyDetector struct {
	params    KeyDetectionParams
	quantizer *NoteQuantizer
	scorer    *KeyScorer
}

// NewKeyDetector creates a detector with default params
func NewKeyDetector() *KeyDetector {
	return newKeyDetector(DefaultKeyDetectionParams())
}

// NewKeyDetectorWithParams creates a detector with custom params
func NewKeyDetectorWithParams(params KeyDetectionParams) (*KeyDetector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return newKeyDetector(params), nil
}

func newKeyDetector(params KeyDetectionParams) *KeyDetector {
	return &KeyDetector{
		params:    params,
		quantizer: NewNoteQuantizer(params.MatchTolerance),
		scorer:    NewKeyScorer(params.OutOfScalePenalty),
	}
}

// Params returns the detector's constants
func (kd *KeyDetector) Params() KeyDetectionParams {
	return kd.params
}

// DetectNotes extracts the spectral peaks of frame and keeps those that
// quantize to a reference pitch
func (kd *KeyDetector) DetectNotes(frame SpectrumFrame) ([]DetectedNote, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	peaks := harmonic.NewSpectralPeaks(frame.SampleRate, kd.params.NoiseFloor).DetectPeaks(frame.Bins)

	notes := make([]DetectedNote, 0, len(peaks))
	for _, peak := range peaks {
		pc, ok := kd.quantizer.Quantize(peak.Frequency)
		if !ok {
			continue
		}
		notes = append(notes, DetectedNote{
			PitchClass: pc,
			Frequency:  peak.Frequency,
			Amplitude:  peak.Magnitude,
		})
	}

	return notes, nil
}

// AnalyzeAudio classifies one frame.
//
// Frames shorter than three bins, frames without peaks and frames whose notes
// favour no key produce a result with no key, zero confidence and no chords.
// A non-positive sample rate or a negative or non-finite magnitude is a contract
// violation and returns an error wrapping ErrInvalidInput.
func (kd *KeyDetector) AnalyzeAudio(frame SpectrumFrame) (AnalysisResult, error) {
	notes, err := kd.DetectNotes(frame)
	if err != nil {
		return AnalysisResult{Key: NoPitchClass}, err
	}

	key, scores := kd.scorer.SelectKey(notes)

	return AnalysisResult{
		Key:             key,
		Notes:           notes,
		Confidence:      Confidence(notes, key),
		SuggestedChords: SuggestChords(key),
		Scores:          scores,
	}, nil
}

var defaultDetector = NewKeyDetector()

// AnalyzeAudio classifies bins with the default constants
func AnalyzeAudio(bins []float64, sampleRate int) (AnalysisResult, error) {
	return defaultDetector.AnalyzeAudio(SpectrumFrame{Bins: bins, SampleRate: sampleRate})
}

// DominantNote returns the loudest detected note; equal amplitudes resolve to
// the lowest frequency
func (ar AnalysisResult) DominantNote() (DetectedNote, bool) {
	if len(ar.Notes) == 0 {
		return DetectedNote{}, false
	}

	best := ar.Notes[0]
	for _, n := range ar.Notes[1:] {
		if n.Amplitude > best.Amplitude {
			best = n
		}
	}
	return best, true
}
