package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Overpass   OverpassConfig   `yaml:"overpass" mapstructure:"overpass"`
	Signals    SignalsConfig    `yaml:"signals" mapstructure:"signals"`
	Scorer     ScorerConfig     `yaml:"scorer" mapstructure:"scorer"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Heatmap    HeatmapConfig    `yaml:"heatmap" mapstructure:"heatmap"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GoogleConfig holds credentials and endpoints for the Google geocoding and
// places collaborators. One key covers both, matching the upstream console
// setup. RegionSuffix is appended to every geocoding query to pin results to
// the service's country context.
type GoogleConfig struct {
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	GeocodeBaseURL string `yaml:"geocode_base_url" mapstructure:"geocode_base_url"`
	PlacesBaseURL  string `yaml:"places_base_url" mapstructure:"places_base_url"`
	RegionSuffix   string `yaml:"region_suffix" mapstructure:"region_suffix"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OverpassConfig holds the OSM Overpass interpreter settings.
type OverpassConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// SignalsConfig configures the three safety-signal providers, including the
// documented degraded-mode fallbacks each one returns when its source is
// unavailable.
type SignalsConfig struct {
	PoliceRadiusMeters         int     `yaml:"police_radius_meters" mapstructure:"police_radius_meters"`
	AccidentFallback           int     `yaml:"accident_fallback" mapstructure:"accident_fallback"`
	StreetlightRadiusMeters    int     `yaml:"streetlight_radius_meters" mapstructure:"streetlight_radius_meters"`
	StreetlightFallbackCount   int     `yaml:"streetlight_fallback_count" mapstructure:"streetlight_fallback_count"`
	StreetlightFallbackDensity float64 `yaml:"streetlight_fallback_density" mapstructure:"streetlight_fallback_density"`
}

// ScorerConfig holds the fusion weights and clamping ceilings for the
// composite score. Weights sum to 1.
type ScorerConfig struct {
	DensityWeight    float64 `yaml:"density_weight" mapstructure:"density_weight"`
	AccidentWeight   float64 `yaml:"accident_weight" mapstructure:"accident_weight"`
	PoliceWeight     float64 `yaml:"police_weight" mapstructure:"police_weight"`
	CrowdWeight      float64 `yaml:"crowd_weight" mapstructure:"crowd_weight"`
	DensityCeiling   float64 `yaml:"density_ceiling" mapstructure:"density_ceiling"`
	AccidentCeiling  float64 `yaml:"accident_ceiling" mapstructure:"accident_ceiling"`
	PoliceNearMeters float64 `yaml:"police_near_meters" mapstructure:"police_near_meters"`
	PoliceFarCredit  float64 `yaml:"police_far_credit" mapstructure:"police_far_credit"`
	CrowdRating      float64 `yaml:"crowd_rating" mapstructure:"crowd_rating"`
}

// ClassifierConfig locates the pre-fit model artifacts. Empty paths load the
// embedded defaults. MissingDistanceMeters substitutes for an absent police
// distance in the feature vector; it is deliberately independent of
// scorer.police_near_meters (two separately documented fallback contracts).
type ClassifierConfig struct {
	ForestPath            string  `yaml:"forest_path" mapstructure:"forest_path"`
	LabelsPath            string  `yaml:"labels_path" mapstructure:"labels_path"`
	MissingDistanceMeters float64 `yaml:"missing_distance_meters" mapstructure:"missing_distance_meters"`
}

// HeatmapConfig configures grid geometry and fan-out concurrency.
type HeatmapConfig struct {
	StepDegrees float64 `yaml:"step_degrees" mapstructure:"step_degrees"`
	HalfWidth   int     `yaml:"half_width" mapstructure:"half_width"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// CacheConfig configures the optional geocode result cache. An empty driver
// disables caching entirely.
type CacheConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLDays     int    `yaml:"ttl_days" mapstructure:"ttl_days"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NIGHTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("google.geocode_base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("google.places_base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.region_suffix", ", India")
	v.SetDefault("google.timeout_secs", 10)

	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 15)
	v.SetDefault("overpass.max_retries", 2)

	v.SetDefault("signals.police_radius_meters", 2000)
	v.SetDefault("signals.accident_fallback", 3)
	v.SetDefault("signals.streetlight_radius_meters", 500)
	v.SetDefault("signals.streetlight_fallback_count", 10)
	v.SetDefault("signals.streetlight_fallback_density", 10)

	v.SetDefault("scorer.density_weight", 0.30)
	v.SetDefault("scorer.accident_weight", 0.25)
	v.SetDefault("scorer.police_weight", 0.20)
	v.SetDefault("scorer.crowd_weight", 0.25)
	v.SetDefault("scorer.density_ceiling", 30)
	v.SetDefault("scorer.accident_ceiling", 10)
	v.SetDefault("scorer.police_near_meters", 1000)
	v.SetDefault("scorer.police_far_credit", 0.4)
	v.SetDefault("scorer.crowd_rating", 4.2)

	v.SetDefault("classifier.missing_distance_meters", 2000)

	v.SetDefault("heatmap.step_degrees", 0.005)
	v.SetDefault("heatmap.half_width", 2)
	v.SetDefault("heatmap.concurrency", 5)

	v.SetDefault("cache.driver", "")
	v.SetDefault("cache.path", "nightwatch.db")
	v.SetDefault("cache.ttl_days", 30)

	// Read config file (optional)
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
