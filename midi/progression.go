package midi

import (
	"fmt"
	"io"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/RyanBlaney/sonido-clave/algorithms/tonal"
)

// TriadQuality is the quality marker of a chord symbol
type TriadQuality int

const (
	TriadMajor TriadQuality = iota
	TriadMinor
	TriadDiminished
)

func (q TriadQuality) String() string {
	switch q {
	case TriadMajor:
		return "major"
	case TriadMinor:
		return "minor"
	case TriadDiminished:
		return "diminished"
	default:
		return "unknown"
	}
}

var triadIntervals = map[TriadQuality][3]uint8{
	TriadMajor:      {0, 4, 7},
	TriadMinor:      {0, 3, 7},
	TriadDiminished: {0, 3, 6},
}

const ticksPerQuarter = 96

// ParseChordSymbol splits a symbol such as "F#m" or "Bdim" into root and quality.
// No suffix means major, "m" minor and "dim" diminished.
func ParseChordSymbol(symbol string) (tonal.PitchClass, TriadQuality, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return tonal.NoPitchClass, TriadMajor, fmt.Errorf("empty chord symbol")
	}

	rootLen := 1
	if len(symbol) > 1 && (symbol[1] == '#' || symbol[1] == 'b') {
		rootLen = 2
	}

	root, err := tonal.ParsePitchClass(symbol[:rootLen])
	if err != nil {
		return tonal.NoPitchClass, TriadMajor, fmt.Errorf("invalid chord root in %q: %w", symbol, err)
	}

	switch suffix := symbol[rootLen:]; suffix {
	case "":
		return root, TriadMajor, nil
	case "m":
		return root, TriadMinor, nil
	case "dim":
		return root, TriadDiminished, nil
	default:
		return tonal.NoPitchClass, TriadMajor, fmt.Errorf("unsupported chord quality %q in %q", suffix, symbol)
	}
}

// ChordNotes returns the MIDI keys of the root-position triad, with the root
// in the given octave (C4 = 60)
func ChordNotes(symbol string, octave int) ([]uint8, error) {
	root, quality, err := ParseChordSymbol(symbol)
	if err != nil {
		return nil, err
	}

	base := 12*(octave+1) + int(root)
	if base < 0 || base+7 > 127 {
		return nil, fmt.Errorf("octave %d out of MIDI range for %q", octave, symbol)
	}

	intervals := triadIntervals[quality]
	notes := make([]uint8, len(intervals))
	for i, iv := range intervals {
		notes[i] = uint8(base) + iv
	}
	return notes, nil
}

// ProgressionOptions controls how a progression is rendered
type ProgressionOptions struct {
	BPM      float64
	Octave   int
	Velocity uint8
	Channel  uint8
}

// DefaultProgressionOptions returns 120 BPM block chords around middle C
func DefaultProgressionOptions() ProgressionOptions {
	return ProgressionOptions{
		BPM:      120,
		Octave:   4,
		Velocity: 100,
		Channel:  0,
	}
}

// WriteProgression writes chords as a single-track SMF, one whole-note chord per 4/4 bar
func WriteProgression(w io.Writer, chords []string, opts ProgressionOptions) error {
	if len(chords) == 0 {
		return fmt.Errorf("no chords to write")
	}
	if opts.BPM <= 0 {
		return fmt.Errorf("bpm must be positive: %v", opts.BPM)
	}

	clock := smf.MetricTicks(ticksPerQuarter)
	bar := clock.Ticks4th() * 4

	var tr smf.Track
	tr.Add(0, smf.MetaMeter(4, 4))
	tr.Add(0, smf.MetaTempo(opts.BPM))

	for _, symbol := range chords {
		notes, err := ChordNotes(symbol, opts.Octave)
		if err != nil {
			return err
		}

		for _, key := range notes {
			tr.Add(0, gomidi.NoteOn(opts.Channel, key, opts.Velocity))
		}
		for i, key := range notes {
			var delta uint32
			if i == 0 {
				delta = bar
			}
			tr.Add(delta, gomidi.NoteOff(opts.Channel, key))
		}
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = clock
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write midi: %w", err)
	}
	return nil
}

// WriteKeyProgression writes the diatonic chords of key in degree order
func WriteKeyProgression(w io.Writer, key tonal.PitchClass, opts ProgressionOptions) error {
	if !key.Valid() {
		return fmt.Errorf("%w: no key to render", tonal.ErrInvalidInput)
	}
	return WriteProgression(w, tonal.SuggestChords(key), opts)
}
