package cli

import (
	"fmt"
	"net"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	pbnet "PaintBoard/internal/net"
)

func newHostCmd(app *App) *cobra.Command {
	var name string
	var noMDNS bool

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host a board and serve it to the LAN",
		Long: strings.TrimSpace(`
Open a board window backed by the local store and serve the same store to
peers over WebSocket. The share link is shown in the window and printed to
stderr.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd, app, name, !noMDNS)
		},
	}

	cmd.Flags().StringVar(&name, "name", envOr("PAINTBOARD_NAME", ""), "Name advertised over mDNS (default: hostname)")
	cmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Do not advertise the board on the LAN")
	return cmd
}

func runHost(cmd *cobra.Command, app *App, name string, advertise bool) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	backend, err := app.openBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", app.Port))
	if err != nil {
		return fmt.Errorf("host: %w", err)
	}
	srv := pbnet.NewServer(backend)
	go func() {
		if err := srv.Serve(ctx, ln); err != nil {
			glog.Errorf("[host] server stopped: %v", err)
		}
	}()

	if advertise {
		m, err := pbnet.Advertise(app.Port, name)
		if err != nil {
			glog.Warningf("[mdns] %v", err)
		} else {
			defer m.Shutdown()
		}
	}

	link := pbnet.ShareLink(pbnet.OutgoingIP(), app.Port)
	glog.Infof("[host] share link %s", link)
	fmt.Fprintf(cmd.ErrOrStderr(), "Share this link: %s\n", link)

	return runBoard(ctx, app, backend, "PaintBoard (host)", link, nil)
}
