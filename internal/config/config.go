package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Transform TransformConfig `yaml:"transform" mapstructure:"transform"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the open-data endpoints.
type SourceConfig struct {
	CycleNetworkURL string  `yaml:"cycle_network_url" mapstructure:"cycle_network_url"`
	GeoJSONURL      string  `yaml:"geojson_url" mapstructure:"geojson_url"`
	PopUpURL        string  `yaml:"popup_url" mapstructure:"popup_url"`
	LocalFile       string  `yaml:"local_file" mapstructure:"local_file"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
	Bounds          BBox    `yaml:"bounds" mapstructure:"bounds"`
}

// BBox is the envelope sent with the ArcGIS query.
type BBox struct {
	XMin float64 `yaml:"xmin" mapstructure:"xmin"`
	YMin float64 `yaml:"ymin" mapstructure:"ymin"`
	XMax float64 `yaml:"xmax" mapstructure:"xmax"`
	YMax float64 `yaml:"ymax" mapstructure:"ymax"`
}

// TransformConfig configures the segment transform.
type TransformConfig struct {
	Workers   int    `yaml:"workers" mapstructure:"workers"`
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// OutputConfig configures exported files.
type OutputConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	JSDir   string   `yaml:"js_dir" mapstructure:"js_dir"`
	Formats []string `yaml:"formats" mapstructure:"formats"`
}

// StoreConfig configures the optional database sink. An empty driver
// disables it.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SEGMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source.cycle_network_url", "https://services1.arcgis.com/cNVyNtjGVZybOQWZ/ArcGIS/rest/services/Cycle_network/FeatureServer/0/query")
	v.SetDefault("source.geojson_url", "https://data.cityofsydney.nsw.gov.au/api/explore/v2.1/catalog/datasets/cycle-network/exports/geojson")
	v.SetDefault("source.popup_url", "https://data.nsw.gov.au/data/api/3/action/package_show?id=sydney-region-pop-up-cycleway")
	v.SetDefault("source.local_file", "cycle-network-raw.geojson")
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.requests_per_sec", 5)
	v.SetDefault("source.user_agent", "segment-cli/1.0")
	v.SetDefault("source.bounds.xmin", 151.17)
	v.SetDefault("source.bounds.ymin", -33.92)
	v.SetDefault("source.bounds.xmax", 151.25)
	v.SetDefault("source.bounds.ymax", -33.84)
	v.SetDefault("transform.workers", 1)
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.js_dir", "js")
	v.SetDefault("output.formats", []string{"json", "js"})
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
