package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/segment"
	"github.com/micro2move/segment-cli/internal/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the live cycle network, transform it, and export segments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		client := newOpenDataClient()
		names, fromFeed := client.PopUpStreets(ctx)
		zap.L().Info("pop-up streets",
			zap.Int("streets", len(names)),
			zap.Bool("from_feed", fromFeed),
		)

		nw, err := fetchNetwork(ctx, client)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		res, err := transformNetwork(ctx, nw, segment.NewPopUpStreets(names), st)
		if err != nil {
			return err
		}
		if err := printRun(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if len(res.Segments) == 0 {
			return eris.New("fetch: no segments produced")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
