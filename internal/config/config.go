package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the listing mirrored when nothing else is configured
const DefaultBaseURL = "https://arquivos.receitafederal.gov.br/dados/cnpj/dados_abertos_cnpj/"

// EnvPrefix prefixes every environment override, e.g. INDEX_MIRROR_REMOTE_BASE_URL
const EnvPrefix = "INDEX_MIRROR"

// LegacyOutputDirEnv overrides output.root_dir for compatibility with older deployments
const LegacyOutputDirEnv = "CNPJ_OUTPUT_DIR"

// Config represents the entire application configuration
type Config struct {
	Remote   RemoteConfig   `mapstructure:"remote"`
	Output   OutputConfig   `mapstructure:"output"`
	Download DownloadConfig `mapstructure:"download"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RemoteConfig contains the listing server settings
type RemoteConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	RequestTimeout string `mapstructure:"request_timeout"`
	HeadTimeout    string `mapstructure:"head_timeout"`
	UserAgent      string `mapstructure:"user_agent"` // empty means index-mirror/<version>
	SkipTLSVerify  bool   `mapstructure:"skip_tls_verify"`
	HTTP3          bool   `mapstructure:"http3"`
}

// OutputConfig contains the local tree settings
type OutputConfig struct {
	RootDir string `mapstructure:"root_dir"`
}

// DownloadConfig contains transfer settings
type DownloadConfig struct {
	ChunkSize        int    `mapstructure:"chunk_size"`
	ProgressInterval string `mapstructure:"progress_interval"`
}

// MirrorConfig contains walk settings
type MirrorConfig struct {
	MaxDepth int `mapstructure:"max_depth"` // 0 = unbounded
}

// JournalConfig contains run history settings
type JournalConfig struct {
	Path string `mapstructure:"path"` // empty disables the journal
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps CLI flag names onto config keys
var flagKeys = map[string]string{
	"base-url":  "remote.base_url",
	"output":    "output.root_dir",
	"max-depth": "mirror.max_depth",
	"log-level": "logging.level",
	"journal":   "journal.path",
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file, environment variables (after loading .env) and changed
// flags. An empty configPath looks for an optional index-mirror.yaml in the
// working directory.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("output.root_dir", EnvPrefix+"_OUTPUT_ROOT_DIR", LegacyOutputDirEnv); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("index-mirror")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("remote.base_url", DefaultBaseURL)
	v.SetDefault("remote.request_timeout", "15s")
	v.SetDefault("remote.head_timeout", "10s")
	v.SetDefault("remote.user_agent", "")
	v.SetDefault("remote.skip_tls_verify", false)
	v.SetDefault("remote.http3", false)
	v.SetDefault("output.root_dir", "data")
	v.SetDefault("download.chunk_size", 8192)
	v.SetDefault("download.progress_interval", "10s")
	v.SetDefault("mirror.max_depth", 0)
	v.SetDefault("journal.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// loadDotEnv exports the variables of an optional .env file. Variables
// already set in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate remote config
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid remote.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("remote.base_url must be an absolute http(s) URL: %s", c.Remote.BaseURL)
	}
	if err := positiveDuration("remote.request_timeout", c.Remote.RequestTimeout); err != nil {
		return err
	}
	if err := positiveDuration("remote.head_timeout", c.Remote.HeadTimeout); err != nil {
		return err
	}

	if c.Output.RootDir == "" {
		return fmt.Errorf("output.root_dir is required")
	}

	// Validate download config
	if c.Download.ChunkSize <= 0 {
		return fmt.Errorf("download.chunk_size must be positive")
	}
	if err := positiveDuration("download.progress_interval", c.Download.ProgressInterval); err != nil {
		return err
	}

	if c.Mirror.MaxDepth < 0 {
		return fmt.Errorf("mirror.max_depth must not be negative")
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

func positiveDuration(key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", key)
	}
	return nil
}

// GetRequestTimeout returns the listing timeout as time.Duration
func (c *RemoteConfig) GetRequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	if d == 0 {
		return 15 * time.Second
	}
	return d
}

// GetHeadTimeout returns the size probe timeout as time.Duration
func (c *RemoteConfig) GetHeadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.HeadTimeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

// GetUserAgent returns the configured user agent or index-mirror/<version>
func (c *RemoteConfig) GetUserAgent(version string) string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return "index-mirror/" + version
}

// GetProgressInterval returns the progress log interval as time.Duration
func (c *DownloadConfig) GetProgressInterval() time.Duration {
	d, _ := time.ParseDuration(c.ProgressInterval)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}
