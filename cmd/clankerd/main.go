// Command clankerd stands in for the editor-side helper process that
// embeds the fabric (§4.I): it owns a workspace name and path, starts the
// Lifecycle, and wires a downstream callback that writes received
// payloads to stdout or a file, so the fabric is exercisable end-to-end
// without a real editor.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/DNGriffin/clankercontext/internal/clockhealth"
	"github.com/DNGriffin/clankercontext/internal/fabric/clock"
	"github.com/DNGriffin/clankercontext/internal/fabric/httpapi"
	"github.com/DNGriffin/clankercontext/internal/fabric/lifecycle"
	"github.com/DNGriffin/clankercontext/internal/logging"
	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
)

func main() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	if err := logging.Configure(logging.LevelInfo); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		name        string
		workspace   string
		port        int
		registryDir string
		outPath     string
		debug       bool
		enableNTP   bool
	)

	cmd := &cobra.Command{
		Use:   "clankerd",
		Short: "Run one instance of the local dispatch fabric",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out, closeOut, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer closeOut()

			var chf httpapi.ClockHealthFunc
			if enableNTP {
				checker := clockhealth.New(clock.Real{})
				go checker.Run(ctx)
				chf = checker.HTTPField
			}

			inst, err := lifecycle.Start(ctx, lifecycle.Config{
				Name:          name,
				WorkspacePath: workspace,
				PreferredPort: port,
				RegistryDir:   registryDir,
				ClockHealth:   chf,
				Send: func(ctx context.Context, content string) error {
					_, err := fmt.Fprintf(out, "--- received %d bytes ---\n%s\n", len(content), content)
					return err
				},
			})
			if err != nil {
				return err
			}

			slog.Info("clankerd listening", "id", inst.Identity().ID, "port", inst.Identity().Port)
			<-ctx.Done()
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaults.LockStaleTimeout)
			defer cancel()
			return inst.Stop(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&name, "name", "untitled", "Workspace name advertised in /health and /instances")
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace path advertised in /health and /instances")
	cmd.Flags().IntVar(&port, "port", defaults.PortRangeBase, "Preferred loopback port")
	cmd.Flags().StringVar(&registryDir, "registry-dir", "", "Registry directory (defaults to the platform data dir)")
	cmd.Flags().StringVar(&outPath, "out", "", "File to append received payloads to (defaults to stdout)")
	cmd.Flags().BoolVar(&enableNTP, "clock-health", false, "Enable the NTP-based clock-skew diagnostic")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open --out file %q: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
