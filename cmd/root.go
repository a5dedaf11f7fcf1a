package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/config"
)

var cfg *config.Config

// rootOptions holds the persistent overrides. Unset flags leave the loaded
// config alone.
type rootOptions struct {
	outputDir string
	formats   []string
	workers   int
	rules     string
	logLevel  string
}

var rootOpts rootOptions

var rootCmd = &cobra.Command{
	Use:   "segment-cli",
	Short: "Sydney cycle segment scoring pipeline",
	Long: `Fetches the City of Sydney cycle network, scores and classifies each
segment, and exports the results for the Micro2Move map.

Each segment gets a facility type, a speed environment, comfort, crash risk
and perceived safety scores, a local area and a set of tags. Results are
written to the output directory as segments.json and segments.js, plus
GeoJSON and shapefile when those formats are enabled.

Configuration is read from config.yaml and SEGMENTS_* environment variables.
The flags below override both.`,
	Example: `  segment-cli fetch --output-dir build/data
  segment-cli transform --in cycle-network-raw.geojson --formats json,geojson
  segment-cli stats --json
  segment-cli serve --port 9000`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		rootOpts.apply(cmd.Flags(), c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootOpts.bind(rootCmd.PersistentFlags())
}

func (o *rootOptions) bind(f *pflag.FlagSet) {
	f.StringVar(&o.outputDir, "output-dir", "", "directory for exported segment files (overrides output.dir)")
	f.StringSliceVar(&o.formats, "formats", nil, "export formats: json, js, geojson, shapefile (overrides output.formats)")
	f.IntVar(&o.workers, "workers", 0, "parallel transform workers (overrides transform.workers)")
	f.StringVar(&o.rules, "rules", "", "YAML rules file (overrides transform.rules_file)")
	f.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")
}

// apply copies explicitly set flags onto c.
func (o *rootOptions) apply(f *pflag.FlagSet, c *config.Config) {
	if f.Changed("output-dir") {
		c.Output.Dir = o.outputDir
	}
	if f.Changed("formats") {
		c.Output.Formats = append([]string(nil), o.formats...)
	}
	if f.Changed("workers") {
		c.Transform.Workers = o.workers
	}
	if f.Changed("rules") {
		c.Transform.RulesFile = o.rules
	}
	if f.Changed("log-level") {
		c.Log.Level = o.logLevel
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
