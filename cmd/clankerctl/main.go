// Command clankerctl is the operator-facing companion to clankerd (§4.J):
// it lists live instances, inspects one instance's health, and dispatches
// content to an instance from outside the host process, all through the
// same Discovery Client the embeddable SDK uses.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/DNGriffin/clankercontext/cmd/clankerctl/ui"
	"github.com/DNGriffin/clankercontext/internal/logging"
)

func main() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ui.ConfigureColor()

	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		os.Stderr.WriteString(ui.ErrorMsg("%s", err.Error()) + "\n")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "clankerctl",
		Short:         "Inspect and talk to running clankercontext fabric instances",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().String("endpoint", "", "Nominal host:port to discover instances from (defaults to the base of the reserved port range)")

	root.AddCommand(listCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(sendCmd())
	return root
}
