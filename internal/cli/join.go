package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	pbnet "PaintBoard/internal/net"
)

var errNoBoards = errors.New("join: no board found on the LAN")

func newJoinCmd(app *App) *cobra.Command {
	var browse time.Duration

	cmd := &cobra.Command{
		Use:   "join [link]",
		Short: "Join a hosted board",
		Long: strings.TrimSpace(`
Join a board from its share link, a host:port or a ws:// URL. Without an
argument the LAN is browsed over mDNS and the first board found is joined.
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			target := ""
			if len(args) == 1 {
				target = args[0]
			} else {
				found, err := discover(ctx, browse)
				if err != nil {
					return err
				}
				target = found
				fmt.Fprintf(cmd.ErrOrStderr(), "Found board at %s\n", target)
			}

			remote, err := dialBoard(ctx, target)
			if err != nil {
				return err
			}
			defer remote.Close()

			return runBoard(ctx, app, remote, "PaintBoard", "", remote.Done())
		},
	}

	cmd.Flags().DurationVar(&browse, "browse", 3*time.Second, "How long to look for boards when no link is given")
	return cmd
}

func discover(ctx context.Context, timeout time.Duration) (string, error) {
	found, err := pbnet.Browse(ctx, timeout)
	if err != nil {
		return "", fmt.Errorf("join: %w", err)
	}
	if len(found) == 0 {
		return "", errNoBoards
	}
	return found[0], nil
}

func dialBoard(ctx context.Context, target string) (*pbnet.Remote, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	remote, err := pbnet.Dial(dialCtx, target)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", target, err)
	}
	glog.Infof("[ws] connected to %s as %s", target, remote.LocalAddr())
	return remote, nil
}
