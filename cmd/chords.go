package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-clave/algorithms/tonal"
	"github.com/RyanBlaney/sonido-clave/logging"
	"github.com/RyanBlaney/sonido-clave/midi"
)

var (
	midiOut string
	midiBPM float64
)

func init() {
	chordsCmd.Flags().StringVar(&midiOut, "midi", "", "write the chords as a MIDI file")
	chordsCmd.Flags().Float64Var(&midiBPM, "bpm", 120, "tempo of the MIDI file")
	rootCmd.AddCommand(chordsCmd)
}

var chordsCmd = &cobra.Command{
	Use:   "chords KEY",
	Short: "List the diatonic chords of a major key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := tonal.ParsePitchClass(args[0])
		if err != nil {
			return err
		}

		chords := tonal.SuggestChords(key)
		fmt.Fprintf(cmd.OutOrStdout(), "%s major: %s\n", keyColor.Sprint(key.String()), strings.Join(chords, cfg.Display.ChordSeparator))

		if midiOut == "" {
			return nil
		}

		f, err := os.Create(midiOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", midiOut, err)
		}
		defer f.Close()

		opts := midi.DefaultProgressionOptions()
		opts.BPM = midiBPM
		if err := midi.WriteProgression(f, chords, opts); err != nil {
			return err
		}

		logging.Info("Wrote chord progression", logging.Fields{
			"component": "cli",
			"file":      midiOut,
			"chords":    len(chords),
		})
		return f.Close()
	},
}
