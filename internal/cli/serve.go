package cli

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	pbnet "PaintBoard/internal/net"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var advertise bool
	var name string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the backend without a window",
		Long: strings.TrimSpace(`
Serve the store to peers over WebSocket until interrupted. Peers join with
the printed link exactly as they would join a host.
`),
		Example: strings.TrimSpace(`
paintboard serve --addr :9000 --db team.db
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if addr == "" {
				addr = fmt.Sprintf(":%d", app.Port)
			}
			backend, err := app.openBackend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			if advertise {
				m, err := pbnet.Advertise(app.Port, name)
				if err != nil {
					glog.Warningf("[mdns] %v", err)
				} else {
					defer m.Shutdown()
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "PaintBoard backend on %s (%s)\n", addr, pbnet.ShareLink(pbnet.OutgoingIP(), app.Port))
			return pbnet.NewServer(backend).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("PAINTBOARD_ADDR", ""), "Bind address (default :<port>)")
	cmd.Flags().BoolVar(&advertise, "mdns", false, "Advertise the backend on the LAN")
	cmd.Flags().StringVar(&name, "name", envOr("PAINTBOARD_NAME", ""), "Name advertised over mDNS")
	return cmd
}
