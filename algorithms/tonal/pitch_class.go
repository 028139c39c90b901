package tonal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PitchClass identifies one of the 12 note names regardless of octave.
// The constant order (C, C#, ..., B) is the iteration order of every
// reference table and therefore decides all tie-breaks.
type PitchClass int8

const (
	NoPitchClass PitchClass = iota - 1
	C
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

// NumPitchClasses is the number of pitch classes in an octave
const NumPitchClasses = 12

var pitchClassNames = [NumPitchClasses]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flatAliases = map[string]PitchClass{
	"Db": CSharp,
	"Eb": DSharp,
	"Gb": FSharp,
	"Ab": GSharp,
	"Bb": ASharp,
}

// PitchClasses returns all pitch classes in table order
func PitchClasses() [NumPitchClasses]PitchClass {
	var pcs [NumPitchClasses]PitchClass
	for i := range pcs {
		pcs[i] = PitchClass(i)
	}
	return pcs
}

// Valid reports whether pc names an actual pitch class
func (pc PitchClass) Valid() bool {
	return pc >= C && pc <= B
}

func (pc PitchClass) String() string {
	if !pc.Valid() {
		return ""
	}
	return pitchClassNames[pc]
}

// ParsePitchClass parses a sharp name ("F#") or a flat alias ("Gb")
func ParsePitchClass(name string) (PitchClass, error) {
	name = strings.TrimSpace(name)
	if len(name) > 0 {
		name = strings.ToUpper(name[:1]) + name[1:]
	}

	for i, n := range pitchClassNames {
		if n == name {
			return PitchClass(i), nil
		}
	}
	if pc, ok := flatAliases[name]; ok {
		return pc, nil
	}

	return NoPitchClass, fmt.Errorf("%w: unknown pitch class %q", ErrInvalidInput, name)
}

// MarshalJSON encodes the pitch class name, or null when absent
func (pc PitchClass) MarshalJSON() ([]byte, error) {
	if !pc.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(pc.String())
}

// UnmarshalJSON accepts a pitch class name or null
func (pc *PitchClass) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*pc = NoPitchClass
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, err := ParsePitchClass(name)
	if err != nil {
		return err
	}
	*pc = parsed
	return nil
}

// Reference frequencies (A4 = 440 Hz) for octaves 2 through 6
var noteFrequencies = [NumPitchClasses][5]float64{
	C:      {65.41, 130.81, 261.63, 523.25, 1046.50},
	CSharp: {69.30, 138.59, 277.18, 554.37, 1108.73},
	D:      {73.42, 146.83, 293.66, 587.33, 1174.66},
	DSharp: {77.78, 155.56, 311.13, 622.25, 1244.51},
	E:      {82.41, 164.81, 329.63, 659.25, 1318.51},
	F:      {87.31, 174.61, 349.23, 698.46, 1396.91},
	FSharp: {92.50, 185.00, 369.99, 739.99, 1479.98},
	G:      {98.00, 196.00, 392.00, 783.99, 1567.98},
	GSharp: {103.83, 207.65, 415.30, 830.61, 1661.22},
	A:      {110.00, 220.00, 440.00, 880.00, 1760.00},
	ASharp: {116.54, 233.08, 466.16, 932.33, 1864.66},
	B:      {123.47, 246.94, 493.88, 987.77, 1975.53},
}

// Diatonic degrees I..vii of each major key
var majorScales = [NumPitchClasses][7]PitchClass{
	C:      {C, D, E, F, G, A, B},
	CSharp: {CSharp, DSharp, F, FSharp, GSharp, ASharp, C},
	D:      {D, E, FSharp, G, A, B, CSharp},
	DSharp: {DSharp, F, G, GSharp, ASharp, C, D},
	E:      {E, FSharp, GSharp, A, B, CSharp, DSharp},
	F:      {F, G, A, ASharp, C, D, E},
	FSharp: {FSharp, GSharp, ASharp, B, CSharp, DSharp, F},
	G:      {G, A, B, C, D, E, FSharp},
	GSharp: {GSharp, ASharp, C, CSharp, DSharp, F, G},
	A:      {A, B, CSharp, D, E, FSharp, GSharp},
	ASharp: {ASharp, C, D, DSharp, F, G, A},
	B:      {B, CSharp, DSharp, E, FSharp, GSharp, ASharp},
}

// Triads on each degree, aligned with majorScales
var diatonicChords = [NumPitchClasses][7]string{
	C:      {"C", "Dm", "Em", "F", "G", "Am", "Bdim"},
	CSharp: {"C#", "D#m", "Fm", "F#", "G#", "A#m", "Cdim"},
	D:      {"D", "Em", "F#m", "G", "A", "Bm", "C#dim"},
	DSharp: {"D#", "Fm", "Gm", "G#", "A#", "Cm", "Ddim"},
	E:      {"E", "F#m", "G#m", "A", "B", "C#m", "D#dim"},
	F:      {"F", "Gm", "Am", "A#", "C", "Dm", "Edim"},
	FSharp: {"F#", "G#m", "A#m", "B", "C#", "D#m", "Fdim"},
	G:      {"G", "Am", "Bm", "C", "D", "Em", "F#dim"},
	GSharp: {"G#", "A#m", "Cm", "C#", "D#", "Fm", "Gdim"},
	A:      {"A", "Bm", "C#m", "D", "E", "F#m", "G#dim"},
	ASharp: {"A#", "Cm", "Dm", "D#", "F", "Gm", "Adim"},
	B:      {"B", "C#m", "D#m", "E", "F#", "G#m", "A#dim"},
}

// scaleMasks[k] has bit pc set iff pc belongs to the major scale of k
var scaleMasks = buildScaleMasks()

func buildScaleMasks() [NumPitchClasses]uint16 {
	var masks [NumPitchClasses]uint16
	for tonic, scale := range majorScales {
		for _, pc := range scale {
			masks[tonic] |= 1 << uint(pc)
		}
	}
	return masks
}

// ReferenceFrequencies returns the five reference frequencies of pc, lowest first
func ReferenceFrequencies(pc PitchClass) [5]float64 {
	if !pc.Valid() {
		return [5]float64{}
	}
	return noteFrequencies[pc]
}

// MajorScale returns the seven degrees of the major scale on tonic
func MajorScale(tonic PitchClass) [7]PitchClass {
	if !tonic.Valid() {
		return [7]PitchClass{}
	}
	return majorScales[tonic]
}

// InMajorScale reports whether pc is diatonic to the major key on tonic
func InMajorScale(tonic, pc PitchClass) bool {
	if !tonic.Valid() || !pc.Valid() {
		return false
	}
	return scaleMasks[tonic]&(1<<uint(pc)) != 0
}
