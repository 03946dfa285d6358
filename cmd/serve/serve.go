// Package serve runs the HTTP API
package serve

import (
	"fmt"

	"fjacquet/voice-ledger/cmd/root"
	"fjacquet/voice-ledger/internal/container"
	"fjacquet/voice-ledger/internal/server"

	"github.com/spf13/cobra"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the voice and exchange-rate API over HTTP",
	Long: `Serve the HTTP API until interrupted.

Routes:
  POST /api/voice   message plus entity catalog in, transactions out
  GET  /api/forex   cached exchange rates
  GET  /healthz     liveness

Example:
  voice-ledger serve --addr :8080`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	app := root.GetContainer()
	if app == nil {
		return fmt.Errorf("container not initialized")
	}

	listen := addr
	if listen == "" {
		listen = app.GetConfig().Server.Addr
	}
	return NewServer(app).Run(cmd.Context(), listen)
}

// NewServer wires the container's processor and rate cache into an HTTP server.
func NewServer(app *container.Container) *server.Server {
	cfg := app.GetConfig()
	opts := server.Options{
		Processor:     app.GetProcessor(),
		Logger:        app.GetLogger(),
		AllowedOrigin: cfg.Server.AllowedOrigin,
		RatesMaxAge:   cfg.ForexTTL(),
	}
	if rates := app.GetForex(); rates != nil {
		opts.Rates = rates
	}
	return server.New(opts)
}
