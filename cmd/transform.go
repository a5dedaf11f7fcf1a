package main

import (
	"github.com/spf13/cobra"

	"github.com/micro2move/segment-cli/internal/segment"
	"github.com/micro2move/segment-cli/internal/store"
)

var (
	transformIn          string
	transformFetchPopUps bool
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform a saved cycle network file and export segments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("transform"); err != nil {
			return err
		}

		in := transformIn
		if in == "" {
			in = localNetworkPath()
		}
		nw, err := loadNetworkFile(in)
		if err != nil {
			return err
		}

		names := segment.FallbackPopUpStreets
		if transformFetchPopUps {
			names, _ = newOpenDataClient().PopUpStreets(ctx)
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
		return printRun(cmd.OutOrStdout(), res)
	},
}

func init() {
	transformCmd.Flags().StringVar(&transformIn, "in", "", "cycle network GeoJSON file (default: source.local_file)")
	transformCmd.Flags().BoolVar(&transformFetchPopUps, "fetch-popups", false, "fetch the pop-up street list instead of using the built-in one")
	rootCmd.AddCommand(transformCmd)
}
