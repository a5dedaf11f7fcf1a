package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/micro2move/segment-cli/internal/export"
	"github.com/micro2move/segment-cli/internal/report"
	"github.com/micro2move/segment-cli/internal/segment"
)

var (
	statsIn   string
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise an exported segments.json file",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := statsIn
		if in == "" {
			in = filepath.Join(cfg.Output.Dir, export.SegmentsJSONFile)
		}
		segs, err := readSegments(in)
		if err != nil {
			return err
		}
		return writeStats(cmd.OutOrStdout(), report.Build(segs), statsJSON)
	},
}

func readSegments(path string) ([]segment.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "stats: read %s", path)
	}
	var segs []segment.Segment
	if err := json.Unmarshal(data, &segs); err != nil {
		return nil, eris.Wrapf(err, "stats: decode %s", path)
	}
	return segs, nil
}

func writeStats(w io.Writer, sum report.Summary, asJSON bool) error {
	if !asJSON {
		return sum.Write(w)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(sum), "stats: encode")
}

func init() {
	statsCmd.Flags().StringVar(&statsIn, "in", "", "segments.json file (default: output.dir/segments.json)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(statsCmd)
}
