package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/dian-siigo-converter/internal/logger"
	"github.com/ginjaninja78/dian-siigo-converter/internal/server"
)

var serveAddr string

// serveCmd runs the HTTP service until SIGINT or SIGTERM.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP service",
	Long: `The serve command exposes the converter over HTTP:

  GET  /healthz
  POST /v1/convert?kind=auto|compras|ventas&format=json|xlsx|csv  (multipart field "file")
  POST /v1/inspect                                                (multipart field "file")`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("server")

		conv, err := newConverter()
		if err != nil {
			return err
		}

		addr := mainConfig.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(conv, mainConfig, log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(addr) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), mainConfig.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}
