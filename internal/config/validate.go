package config

import (
	"github.com/rotisserie/eris"
)

// Export formats understood by the output section.
const (
	FormatJSON      = "json"
	FormatJS        = "js"
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Validate checks the settings a command depends on. section is one of
// "fetch", "transform" or "serve".
func (c *Config) Validate(section string) error {
	switch section {
	case "fetch":
		if c.Source.CycleNetworkURL == "" && c.Source.GeoJSONURL == "" {
			return eris.New("config: source.cycle_network_url or source.geojson_url is required")
		}
		if err := c.validateOutput(); err != nil {
			return err
		}
		return c.validateStore()
	case "transform":
		if err := c.validateOutput(); err != nil {
			return err
		}
		return c.validateStore()
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return eris.Errorf("config: server.port %d out of range", c.Server.Port)
		}
		return nil
	default:
		return eris.Errorf("config: unknown section %q", section)
	}
}

func (c *Config) validateOutput() error {
	if c.Output.Dir == "" {
		return eris.New("config: output.dir is required")
	}
	for _, f := range c.Output.Formats {
		switch f {
		case FormatJSON, FormatJS, FormatGeoJSON, FormatShapefile:
		default:
			return eris.Errorf("config: unknown output format %q (valid: json, js, geojson, shapefile)", f)
		}
	}
	if c.Transform.Workers < 0 {
		return eris.Errorf("config: transform.workers must be >= 0, got %d", c.Transform.Workers)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "":
		return nil
	case DriverSQLite, DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return eris.Errorf("config: store.database_url is required for driver %q", c.Store.Driver)
		}
		return nil
	default:
		return eris.Errorf("config: unknown store driver %q (valid: sqlite, postgres)", c.Store.Driver)
	}
}
