package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-clave/config"
	"github.com/RyanBlaney/sonido-clave/logging"
)

var (
	configPath string
	logLevel   string
	noColor    bool

	// cfg is loaded once in PersistentPreRunE and read by every subcommand
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clave",
	Short: "Detect the major key of audio from its spectrum",
	Long: `clave finds spectral peaks, maps them to notes, picks the best fitting
major key and suggests the diatonic chords of that key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}

		level, err := logging.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		logging.SetLevel(level)

		if noColor {
			logging.DisableColors()
			color.NoColor = true
		}

		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func Execute() {
	cobra.CheckErr(rootCmd.ExecuteContext(context.Background()))
}
