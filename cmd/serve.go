package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kamal-hamza/px-cli/internal/adapters/notify"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	serveAddr    string
	serveNoWatch bool
	serveQuiet   bool
)

const serveShutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream catalog changes over a websocket",
	Long: `Start a local change feed and keep the catalog up to date.

Every catalog change is broadcast as JSON to clients connected to /ws.
GET /healthz reports the server status and the number of clients.

Unless --no-watch is given, the asset directories are watched and
re-cataloged exactly as 'px watch' does.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to serve_addr)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Only serve the feed, do not watch directories")
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "Suppress catalog notifications")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	addr := serveAddr
	if addr == "" {
		addr = appConfig.ServeAddr
	}

	hub := notify.NewHub(appLogger.Named("ws"))
	changes, unsubscribe := changeNotifier.Subscribe()
	defer unsubscribe()

	server := &http.Server{
		Addr:              addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case change, ok := <-changes:
				if !ok {
					return nil
				}
				hub.Publish(change)
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.ListenAndServe()
		}()

		select {
		case <-gctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			return nil
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve http: %w", err)
		}
	})

	fmt.Println(ui.FormatRocket("Change feed listening on ws://" + addr + "/ws"))
	appLogger.Info("change feed started", zap.String("addr", addr))

	if !serveNoWatch {
		loop, err := newWatchLoop(serveQuiet)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return loop.Run(gctx)
		})
	} else {
		fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
	}

	err := g.Wait()
	appLogger.Info("change feed stopped", zap.Uint64("changes", changeNotifier.Published()))
	return err
}
