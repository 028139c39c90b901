package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-clave/algorithms/tonal"
)

func init() {
	rootCmd.AddCommand(spectrumCmd)
}

var spectrumCmd = &cobra.Command{
	Use:   "spectrum FILE.json",
	Short: "Analyse one precomputed magnitude spectrum",
	Long: `Reads {"bins": [...], "sample_rate": 44100} from FILE.json (or stdin when
FILE is "-") and prints the analysis result as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read spectrum: %w", err)
		}

		var frame tonal.SpectrumFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return fmt.Errorf("failed to parse spectrum: %w", err)
		}

		detector, err := tonal.NewKeyDetectorWithParams(cfg.Detector)
		if err != nil {
			return err
		}

		result, err := detector.AnalyzeAudio(frame)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			tonal.AnalysisResult
			Displayable bool `json:"displayable"`
		}{result, cfg.Display.Displayable(result)})
	},
}
