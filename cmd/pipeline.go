package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/export"
	"github.com/micro2move/segment-cli/internal/fetcher"
	"github.com/micro2move/segment-cli/internal/opendata"
	"github.com/micro2move/segment-cli/internal/report"
	"github.com/micro2move/segment-cli/internal/segment"
	"github.com/micro2move/segment-cli/internal/store"
)

// runResult is the outcome of one transform pass.
type runResult struct {
	Network  *opendata.Network
	Segments []segment.Segment
	Skipped  []segment.Result
	Paths    []string
	RunID    string
}

// loadRules returns the configured rule set, or the built-in one.
func loadRules() (*segment.Rules, error) {
	if cfg.Transform.RulesFile == "" {
		return segment.DefaultRules(), nil
	}
	return segment.LoadRules(cfg.Transform.RulesFile)
}

// newOpenDataClient builds the portal client with per-host rate limits.
func newOpenDataClient() *opendata.Client {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.Source.UserAgent,
		Timeout:     time.Duration(cfg.Source.TimeoutSecs) * time.Second,
		MaxRetries:  cfg.Source.MaxRetries,
		Limiters:    fetcher.PortalLimiters(cfg.Source.RequestsPerSec),
		DefaultRate: cfg.Source.RequestsPerSec,
	})
	b := cfg.Source.Bounds
	return opendata.NewClient(f, opendata.Endpoints{
		CycleNetworkURL: cfg.Source.CycleNetworkURL,
		GeoJSONURL:      cfg.Source.GeoJSONURL,
		PopUpURL:        cfg.Source.PopUpURL,
		Bounds:          opendata.Envelope{XMin: b.XMin, YMin: b.YMin, XMax: b.XMax, YMax: b.YMax},
	})
}

// localNetworkPath resolves source.local_file. Relative paths live in the
// output directory, next to the raw network saved by fetch.
func localNetworkPath() string {
	p := cfg.Source.LocalFile
	if p == "" {
		p = export.RawNetworkFile
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Output.Dir, p)
}

// fetchNetwork fetches the live network and falls back to the saved copy.
// A fetched network is saved as the next run's fallback.
func fetchNetwork(ctx context.Context, client *opendata.Client) (*opendata.Network, error) {
	log := zap.L().With(zap.String("component", "cmd.fetch"))

	nw, err := client.FetchCycleNetwork(ctx)
	if err == nil {
		rawPath := filepath.Join(cfg.Output.Dir, export.RawNetworkFile)
		if werr := export.WriteRaw(rawPath, nw.Raw); werr != nil {
			return nil, werr
		}
		log.Info("saved raw network", zap.String("path", rawPath))
		return nw, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	path := localNetworkPath()
	log.Warn("live fetch failed, trying local file", zap.String("path", path), zap.Error(err))
	local, lerr := opendata.LoadLocal(path)
	if lerr != nil {
		return nil, lerr
	}
	if local == nil {
		return nil, err
	}
	return local, nil
}

// loadNetworkFile reads a FeatureCollection from disk.
func loadNetworkFile(path string) (*opendata.Network, error) {
	nw, err := opendata.LoadLocal(path)
	if err != nil {
		return nil, err
	}
	if nw == nil {
		return nil, eris.Errorf("cmd: network file %s not found", path)
	}
	return nw, nil
}

// transformNetwork runs the transform, exports every configured format and
// stores the run when st is non-nil.
func transformNetwork(ctx context.Context, nw *opendata.Network, streets segment.PopUpStreets, st store.SegmentStore) (*runResult, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}

	tr := segment.NewTransformer(rules, streets)
	segs, skipped, err := tr.TransformParallel(ctx, nw.Collection.Features, cfg.Transform.Workers)
	if err != nil {
		return nil, eris.Wrap(err, "cmd: transform")
	}

	res := &runResult{Network: nw, Segments: segs, Skipped: skipped}

	res.Paths, err = export.Write(export.Options{
		Dir:     cfg.Output.Dir,
		JSDir:   cfg.Output.JSDir,
		Formats: cfg.Output.Formats,
	}, segs)
	if err != nil {
		return nil, err
	}

	if st != nil {
		res.RunID, err = st.ReplaceSegments(ctx, segs)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// printRun writes the run summary block.
func printRun(w io.Writer, res *runResult) error {
	if _, err := fmt.Fprintf(w, "Source: %s\n", res.Network.Summary()); err != nil {
		return err
	}
	if len(res.Skipped) > 0 {
		if _, err := fmt.Fprintf(w, "Skipped features: %d\n", len(res.Skipped)); err != nil {
			return err
		}
	}
	for _, p := range res.Paths {
		if _, err := fmt.Fprintf(w, "Wrote %s\n", p); err != nil {
			return err
		}
	}
	if res.RunID != "" {
		if _, err := fmt.Fprintf(w, "Stored run %s\n", res.RunID); err != nil {
			return err
		}
	}
	return report.Build(res.Segments).Write(w)
}
