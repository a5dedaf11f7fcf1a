package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/api"
	"github.com/micro2move/segment-cli/internal/opendata"
	"github.com/micro2move/segment-cli/internal/segment"
	"github.com/micro2move/segment-cli/internal/store"
)

var (
	servePort int
	serveIn   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Transform the cycle network once and serve segments over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := openServeStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var (
			nw      *opendata.Network
			streets = segment.FallbackPopUpStreets
		)
		if serveIn != "" {
			nw, err = loadNetworkFile(serveIn)
		} else {
			client := newOpenDataClient()
			streets, _ = client.PopUpStreets(ctx)
			nw, err = fetchNetwork(ctx, client)
		}
		if err != nil {
			return err
		}

		res, err := transformNetwork(ctx, nw, segment.NewPopUpStreets(streets), st)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.NewServer(st).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.Int("segments", len(res.Segments)),
			zap.String("run_id", res.RunID),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// openServeStore opens the configured store, or an in-memory one when no
// driver is set.
func openServeStore(ctx context.Context) (store.SegmentStore, error) {
	if err := cfg.Validate("transform"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return store.NewMemory(nil), nil
	}
	return st, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveIn, "in", "", "serve a saved cycle network file instead of fetching")
	rootCmd.AddCommand(serveCmd)
}
