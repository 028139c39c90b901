package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-clave/algorithms/tonal"
	"github.com/RyanBlaney/sonido-clave/server"
)

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the key detector over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		detector, err := tonal.NewKeyDetectorWithParams(cfg.Detector)
		if err != nil {
			return err
		}

		serverConfig := cfg.Server
		if listenAddr != "" {
			serverConfig.Addr = listenAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(detector, cfg.Display, serverConfig).ListenAndServe(ctx)
	},
}
