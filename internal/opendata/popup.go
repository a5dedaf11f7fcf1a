package opendata

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/fetcher"
	"github.com/micro2move/segment-cli/internal/segment"
)

// ckanPackage is the subset of a CKAN package_show response we read.
type ckanPackage struct {
	Success bool `json:"success"`
	Result  *struct {
		Resources []ckanResource `json:"resources"`
	} `json:"result"`
}

type ckanResource struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

var streetKeys = []string{"STREETNAME", "street_name", "name"}

// PopUpStreets returns the pop-up cycleway street names, upper-cased and
// sorted. fromFeed is false when the feed could not be read and the built-in
// list was used instead. A readable feed with no street names yields an empty
// list.
func (c *Client) PopUpStreets(ctx context.Context) (names []string, fromFeed bool) {
	names, err := c.fetchPopUpStreets(ctx)
	if err != nil {
		c.log.Warn("using built-in pop-up street list", zap.Error(err))
		fallback := append([]string(nil), segment.FallbackPopUpStreets...)
		return fallback, false
	}
	c.log.Info("fetched pop-up streets", zap.Int("streets", len(names)))
	return names, true
}

func (c *Client) fetchPopUpStreets(ctx context.Context) ([]string, error) {
	if c.ep.PopUpURL == "" {
		return nil, eris.New("opendata: no pop-up url configured")
	}

	pkg, err := fetcher.FetchJSON[ckanPackage](ctx, c.fetch, c.ep.PopUpURL)
	if err != nil {
		return nil, eris.Wrap(err, "opendata: pop-up package")
	}
	if !pkg.Success || pkg.Result == nil {
		return nil, eris.New("opendata: pop-up package lookup unsuccessful")
	}

	res, ok := firstJSONResource(pkg.Result.Resources)
	if !ok {
		return nil, eris.New("opendata: pop-up package has no json resource")
	}

	fc, err := fetcher.FetchJSON[segment.FeatureCollection](ctx, c.fetch, res.URL)
	if err != nil {
		return nil, eris.Wrap(err, "opendata: pop-up resource")
	}
	return streetNames(fc.Features), nil
}

func firstJSONResource(resources []ckanResource) (ckanResource, bool) {
	for _, r := range resources {
		switch strings.ToLower(r.Format) {
		case "geojson", "json":
			if r.URL != "" {
				return r, true
			}
		}
	}
	return ckanResource{}, false
}

func streetNames(features []segment.RawFeature) []string {
	set := make(map[string]struct{})
	for _, f := range features {
		name, ok := f.Properties.FirstString(streetKeys...)
		if !ok {
			continue
		}
		if n := segment.NormalizeStreet(name); n != "" {
			set[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
