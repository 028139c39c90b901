package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-clave/config"
	"github.com/RyanBlaney/sonido-clave/logging"
	"github.com/RyanBlaney/sonido-clave/session"
	"github.com/RyanBlaney/sonido-clave/transcode"
)

var verbose bool

var keyColor = color.New(color.FgGreen, color.Bold)

func init() {
	analyzeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every analysed frame")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Detect the key of an audio file",
	Long: `Decodes FILE with ffmpeg, splits it into analyser blocks and detects the
key of every block. The summary reports the key shown most often.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := logging.WithFields(logging.Fields{
			"component": "cli",
			"file":      args[0],
		})

		decoderConfig := cfg.Decoder
		audio, err := transcode.NewDecoder(&decoderConfig).DecodeFile(ctx, args[0])
		if err != nil {
			return err
		}
		logger.Debug("Decoded audio", logging.Fields{
			"samples":  len(audio.PCM),
			"duration": audio.Duration.String(),
		})

		analyzer, err := session.NewAnalyzerFromConfig(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		summary, err := analyzer.Run(ctx, audio.PCM, audio.SampleRate, func(report session.FrameReport) error {
			if verbose {
				printFrame(out, report)
			}
			return nil
		})
		if err != nil {
			return err
		}

		printSummary(out, summary, cfg.Display)
		return nil
	},
}

func printFrame(out io.Writer, report session.FrameReport) {
	notes := make([]string, 0, len(report.Result.Notes))
	for _, n := range report.Result.Notes {
		notes = append(notes, n.PitchClass.String())
	}

	key := "Analysing..."
	if report.Displayable {
		key = keyColor.Sprint(report.Result.Key.String())
	}

	fmt.Fprintf(out, "%8.3fs  key=%-12s confidence=%3d%%  notes=[%s]\n",
		report.Offset.Seconds(), key, report.Result.Confidence, strings.Join(notes, " "))
}

func printSummary(out io.Writer, summary session.Summary, display config.DisplayConfig) {
	fmt.Fprintf(out, "Frames analysed: %d (%d above %d%% confidence)\n",
		summary.Frames, summary.DisplayableFrames, display.MinConfidence)

	if !summary.Key.Valid() {
		fmt.Fprintln(out, "Key: --")
		fmt.Fprintln(out, "Chords: --")
		return
	}

	fmt.Fprintf(out, "Key: %s major (mean confidence %.0f%%)\n", keyColor.Sprint(summary.Key.String()), summary.MeanConfidence)
	fmt.Fprintf(out, "Chords: %s\n", strings.Join(summary.SuggestedChords, display.ChordSeparator))
}
