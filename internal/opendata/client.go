// Package opendata fetches the City of Sydney cycle network and the NSW
// pop-up cycleway list from their open-data portals.
package opendata

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/fetcher"
	"github.com/micro2move/segment-cli/internal/segment"
)

// Source names where a cycle network came from.
type Source string

const (
	SourceArcGIS Source = "arcgis"
	SourceExport Source = "geojson_export"
	SourceLocal  Source = "local_file"
)

// ErrNoNetwork is returned when no endpoint produced a usable collection.
var ErrNoNetwork = eris.New("opendata: no cycle network available")

// Envelope is the WGS84 bounding box sent with the ArcGIS query.
type Envelope struct {
	XMin, YMin, XMax, YMax float64
}

// Endpoints lists the portal URLs. Empty URLs are skipped.
type Endpoints struct {
	CycleNetworkURL string
	GeoJSONURL      string
	PopUpURL        string
	Bounds          Envelope
}

// Network is a fetched cycle network. Raw holds the body exactly as received
// so it can be saved and reloaded as the local fallback.
type Network struct {
	Raw        []byte
	Collection *segment.FeatureCollection
	Source     Source
}

// Client talks to the portals through a Fetcher.
type Client struct {
	fetch fetcher.Fetcher
	ep    Endpoints
	log   *zap.Logger
}

// NewClient creates a Client.
func NewClient(f fetcher.Fetcher, ep Endpoints) *Client {
	return &Client{
		fetch: f,
		ep:    ep,
		log:   zap.L().With(zap.String("component", "opendata")),
	}
}

// ArcGISQueryURL is the feature-server query for every feature intersecting
// the configured envelope, returned as WGS84 GeoJSON.
func (c *Client) ArcGISQueryURL() (string, error) {
	u, err := url.Parse(c.ep.CycleNetworkURL)
	if err != nil {
		return "", eris.Wrap(err, "opendata: parse arcgis url")
	}

	b := c.ep.Bounds
	envelope := map[string]any{
		"xmin":             b.XMin,
		"ymin":             b.YMin,
		"xmax":             b.XMax,
		"ymax":             b.YMax,
		"spatialReference": map[string]int{"wkid": 4326},
	}
	geometry, err := json.Marshal(envelope)
	if err != nil {
		return "", eris.Wrap(err, "opendata: encode envelope")
	}

	q := u.Query()
	q.Set("where", "1=1")
	q.Set("outFields", "*")
	q.Set("f", "geojson")
	q.Set("outSR", "4326")
	q.Set("geometry", string(geometry))
	q.Set("geometryType", "esriGeometryEnvelope")
	q.Set("inSR", "4326")
	q.Set("spatialRel", "esriSpatialRelIntersects")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchCycleNetwork tries the ArcGIS feature server, then the GeoJSON
// export. A response without a "features" member counts as a failure. If
// both fail the error wraps ErrNoNetwork.
func (c *Client) FetchCycleNetwork(ctx context.Context) (*Network, error) {
	type attempt struct {
		source Source
		url    func() (string, error)
	}
	attempts := []attempt{
		{SourceArcGIS, func() (string, error) {
			if c.ep.CycleNetworkURL == "" {
				return "", nil
			}
			return c.ArcGISQueryURL()
		}},
		{SourceExport, func() (string, error) { return c.ep.GeoJSONURL, nil }},
	}

	var errs []string
	for _, a := range attempts {
		rawURL, err := a.url()
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if rawURL == "" {
			continue
		}

		nw, err := c.fetchNetwork(ctx, rawURL, a.source)
		if err == nil {
			return nw, nil
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "opendata: fetch cycle network")
		}
		c.log.Warn("cycle network source failed",
			zap.String("source", string(a.source)),
			zap.Error(err),
		)
		errs = append(errs, err.Error())
	}

	if len(errs) == 0 {
		return nil, ErrNoNetwork
	}
	return nil, eris.Wrap(ErrNoNetwork, strings.Join(errs, "; "))
}

func (c *Client) fetchNetwork(ctx context.Context, rawURL string, source Source) (*Network, error) {
	raw, err := fetcher.FetchBytes(ctx, c.fetch, rawURL)
	if err != nil {
		return nil, err
	}
	fc, err := DecodeNetwork(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "opendata: %s", source)
	}
	c.log.Info("fetched cycle network",
		zap.String("source", string(source)),
		zap.Int("features", len(fc.Features)),
		zap.Int("bytes", len(raw)),
	)
	return &Network{Raw: raw, Collection: fc, Source: source}, nil
}

// DecodeNetwork parses a FeatureCollection and requires a "features" member.
func DecodeNetwork(raw []byte) (*segment.FeatureCollection, error) {
	var fc segment.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrap(err, "opendata: decode feature collection")
	}
	if fc.Features == nil {
		return nil, eris.New("opendata: response has no features member")
	}
	return &fc, nil
}

// LoadLocal reads a previously saved network. It returns (nil, nil) when the
// file does not exist.
func LoadLocal(path string) (*Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "opendata: read %s", path)
	}
	fc, err := DecodeNetwork(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "opendata: load %s", path)
	}
	zap.L().Info("loaded local cycle network",
		zap.String("component", "opendata"),
		zap.String("path", path),
		zap.Int("features", len(fc.Features)),
	)
	return &Network{Raw: raw, Collection: fc, Source: SourceLocal}, nil
}

// Summary is a one-line description of where the network came from.
func (n *Network) Summary() string {
	if n == nil || n.Collection == nil {
		return "no network"
	}
	return string(n.Source) + ": " + strconv.Itoa(len(n.Collection.Features)) + " features"
}
