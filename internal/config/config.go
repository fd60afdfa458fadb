// Package config holds process configuration and its loading logic.
//
// Precedence (low to high): built-in defaults, an optional YAML file
// pointed at by MYSITE_CONFIG, then MYSITE_-prefixed environment
// variables.
package config

// Config is the full process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBPath is the SQLite database path.
	DBPath string `koanf:"db_path"`

	API  APIConfig  `koanf:"api"`
	Data DataConfig `koanf:"data"`
}

// APIConfig configures the outbound Orion gateway.
type APIConfig struct {
	// BaseURL is the Orion API root, without trailing slash.
	BaseURL string `koanf:"base_url"`

	// ClientID and ClientSecret are forwarded on every request as the
	// two Cloudflare Access headers.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// TimeoutSeconds bounds each outbound call. No retries are attempted.
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// DataConfig locates the flat reference files.
type DataConfig struct {
	CompetitionTypesPath string `koanf:"competition_types_path"`
	RankingPositionsPath string `koanf:"ranking_positions_path"`
}

// Defaults returns a Config populated with development defaults.
func Defaults() *Config {
	return &Config{
		Addr:     ":8080",
		LogLevel: "info",
		DBPath:   "mysite.db",
		API: APIConfig{
			TimeoutSeconds: 30,
		},
		Data: DataConfig{
			CompetitionTypesPath: "data/competition_arrows.csv",
			RankingPositionsPath: "data/ranking_positions.csv",
		},
	}
}
