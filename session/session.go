package session

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-clave/algorithms/common"
	"github.com/RyanBlaney/sonido-clave/algorithms/spectral"
	"github.com/RyanBlaney/sonido-clave/algorithms/tonal"
	"github.com/RyanBlaney/sonido-clave/config"
	"github.com/RyanBlaney/sonido-clave/logging"
)

// FrameReport is the analysis of one analyser block
type FrameReport struct {
	Index       int                  `json:"index"`
	Offset      time.Duration        `json:"offset"` // Start of the block in the stream
	Result      tonal.AnalysisResult `json:"result"`
	Displayable bool                 `json:"displayable"` // Result clears the display policy
}

// Summary aggregates the displayable frames of a stream
type Summary struct {
	Frames            int                        `json:"frames"`
	DisplayableFrames int                        `json:"displayable_frames"`
	Key               tonal.PitchClass           `json:"key"` // Most frequent displayable key
	KeyVotes          [tonal.NumPitchClasses]int `json:"key_votes"`
	MeanConfidence    float64                    `json:"mean_confidence"` // Over displayable frames
	SuggestedChords   []string                   `json:"suggested_chords"`
}

// Analyzer drives the key detector over a PCM stream the way a live capture
// loop would: one analyser block at a time, one independent analysis per block
type Analyzer struct {
	detector *tonal.KeyDetector
	analyser spectral.AnalyserConfig
	display  config.DisplayConfig
}

// NewAnalyzer creates a stream analyzer
func NewAnalyzer(detector *tonal.KeyDetector, analyser spectral.AnalyserConfig, display config.DisplayConfig) *Analyzer {
	return &Analyzer{
		detector: detector,
		analyser: analyser,
		display:  display,
	}
}

// NewAnalyzerFromConfig wires an analyzer from application config
func NewAnalyzerFromConfig(cfg *config.Config) (*Analyzer, error) {
	detector, err := tonal.NewKeyDetectorWithParams(cfg.Detector)
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(detector, cfg.Analyser, cfg.Display), nil
}

// Run splits pcm into non-overlapping blocks of the analyser FFT size and
// analyses each one. A trailing partial block is ignored. onFrame, if not
// nil, sees every report in order; returning an error stops the run.
func (a *Analyzer) Run(ctx context.Context, pcm []float64, sampleRate int, onFrame func(FrameReport) error) (Summary, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component":   "session",
		"sample_rate": sampleRate,
		"samples":     len(pcm),
	})

	summary := Summary{Key: tonal.NoPitchClass, SuggestedChords: []string{}}
	if sampleRate <= 0 {
		return summary, fmt.Errorf("%w: sample rate must be positive, got %d", tonal.ErrInvalidInput, sampleRate)
	}

	byteAnalyser, err := spectral.NewByteAnalyser(a.analyser)
	if err != nil {
		return summary, fmt.Errorf("failed to create analyser: %w", err)
	}

	blockSize := a.analyser.FFTSize
	var confidences []float64

	for start := 0; start+blockSize <= len(pcm); start += blockSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		data, err := byteAnalyser.ByteFrequencyData(pcm[start : start+blockSize])
		if err != nil {
			return summary, err
		}

		result, err := a.detector.AnalyzeAudio(tonal.NewByteSpectrumFrame(data, sampleRate))
		if err != nil {
			return summary, fmt.Errorf("frame %d: %w", summary.Frames, err)
		}

		report := FrameReport{
			Index:       summary.Frames,
			Offset:      time.Duration(start) * time.Second / time.Duration(sampleRate),
			Result:      result,
			Displayable: a.display.Displayable(result),
		}
		summary.Frames++

		if report.Displayable {
			summary.DisplayableFrames++
			summary.KeyVotes[result.Key]++
			confidences = append(confidences, float64(result.Confidence))
		}

		if onFrame != nil {
			if err := onFrame(report); err != nil {
				return summary, err
			}
		}
	}

	summary.Key = mostVoted(summary.KeyVotes)
	summary.MeanConfidence = common.Mean(confidences)
	summary.SuggestedChords = tonal.SuggestChords(summary.Key)

	logger.Debug("Stream analysed", logging.Fields{
		"frames":             summary.Frames,
		"displayable_frames": summary.DisplayableFrames,
		"key":                summary.Key.String(),
	})

	return summary, nil
}

// mostVoted picks the key with the most votes, earliest in table order on ties
func mostVoted(votes [tonal.NumPitchClasses]int) tonal.PitchClass {
	counts := make([]float64, len(votes))
	for i, v := range votes {
		counts[i] = float64(v)
	}

	idx := common.MaxIdx(counts)
	if idx < 0 || counts[idx] == 0 {
		return tonal.NoPitchClass
	}
	return tonal.PitchClass(idx)
}
