// Package cli wires the board, the sync channel and the backends into the
// paintboard commands.
package cli

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"PaintBoard/internal/channel"
	pbnet "PaintBoard/internal/net"
	"PaintBoard/internal/store"
)

type App struct {
	DB     string
	Memory bool
	Port   int
	Flush  time.Duration
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "paintboard",
		Short:        "Shared LAN drawing board",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Host a board and share the printed link
  paintboard host

  # Join from a share link (same as: paintboard join <link>)
  paintboard paintboard://192.168.1.20:8888

  # Find a board on the LAN and join it
  paintboard join

  # Run only the backend
  paintboard serve --db boards/team.db
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => host, like double-clicking the app.
			if len(args) == 0 {
				return runHost(cmd, app, "", true)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.DB, "db", envOr("PAINTBOARD_DB", "paintboard.db"), "SQLite file holding the persisted batches")
	cmd.PersistentFlags().BoolVar(&app.Memory, "memory", false, "Keep batches in memory only")
	cmd.PersistentFlags().IntVar(&app.Port, "port", envIntOr("PAINTBOARD_PORT", pbnet.DefaultPort), "Port the host backend listens on")
	cmd.PersistentFlags().DurationVar(&app.Flush, "flush", envDurationOr("PAINTBOARD_FLUSH", time.Second), "How often pending segments are persisted")
	// glog's -v, -logtostderr and friends.
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	cmd.AddCommand(newHostCmd(app))
	cmd.AddCommand(newJoinCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newExportCmd(app))

	cobra.OnFinalize(glog.Flush)
	return cmd
}

func (a *App) config() channel.Config {
	cfg := channel.DefaultConfig()
	cfg.FlushInterval = a.Flush
	return cfg
}

// openBackend opens the local store the host or server persists into.
func (a *App) openBackend(ctx context.Context) (store.Backend, error) {
	if a.Memory {
		return store.NewMemory(), nil
	}
	s, err := store.OpenSQLite(ctx, a.DB)
	if err != nil {
		return nil, err
	}
	glog.Infof("[host] persisting to %s", s.Path())
	return s, nil
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envIntOr(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDurationOr(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return v
	}
	return d
}
