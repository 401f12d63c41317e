package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"PaintBoard/internal/channel"
	"PaintBoard/internal/export"
	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

func newExportCmd(app *App) *cobra.Command {
	var link string
	var fit bool

	cmd := &cobra.Command{
		Use:   "export <out.pdf>",
		Short: "Replay the persisted board into a PDF",
		Long: strings.TrimSpace(`
Replay every persisted batch, from the local store or from a running host
with --link, and write the resulting drawing to a PDF file.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			var backend store.Backend
			if link != "" {
				remote, err := dialBoard(ctx, link)
				if err != nil {
					return err
				}
				backend = remote
			} else {
				local, err := app.openBackend(ctx)
				if err != nil {
					return err
				}
				backend = local
			}
			defer backend.Close()

			n, segs, err := replayAll(ctx, app, backend)
			if err != nil {
				return err
			}
			area := canvasArea
			if fit {
				area = state.Rect{}
			}
			if err := export.PDF(args[0], segs, area); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d segments from %d batches to %s\n", len(segs), n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&link, "link", "", "Export from a running host instead of the local store")
	cmd.Flags().BoolVar(&fit, "fit", false, "Fit the page to the drawing rather than the whole canvas")
	return cmd
}

func replayAll(ctx context.Context, app *App, backend store.Backend) (int, []state.Segment, error) {
	rec := &channel.Recorder{}
	ch := channel.New(backend, rec, app.config())
	defer ch.Close()
	n, err := ch.Replay(ctx)
	if err != nil {
		return 0, nil, err
	}
	return n, rec.Segments(), nil
}
