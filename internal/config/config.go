package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Belphemur/csvreader/internal/cache"
	"github.com/Belphemur/csvreader/internal/csvreader"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Reader   struct {
		AllowedEncodings   []string          `mapstructure:"allowed_encodings"`
		EncodingAliases    map[string]string `mapstructure:"encoding_aliases"` // detector label -> utf-8 | windows-1251
		IgnoreBlankRecords bool              `mapstructure:"ignore_blank_records"`
		SampleSize         int               `mapstructure:"sample_size"` // bytes sniffed at open
		ConversionPolicy   string            `mapstructure:"conversion_policy"`
		Decompress         bool              `mapstructure:"decompress"`
		LegacyFallback     bool              `mapstructure:"legacy_fallback"` // read any 8-bit text as windows-1251
	} `mapstructure:"reader"`
	DetectionCache struct {
		Provider      string `mapstructure:"provider"` // "memory", "redis" or empty to disable
		Size          int    `mapstructure:"size"`
		TTL           string `mapstructure:"ttl"` // Go duration string like "1h", "24h", etc.
		RedisAddress  string `mapstructure:"redis_address"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
	} `mapstructure:"detection_cache"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Server struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
	Output struct {
		Format string `mapstructure:"format"` // "tsv" or "json"
	} `mapstructure:"output"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Records go to stdout, so logs use stderr
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("reader.allowed_encodings", []string{"utf-8", "windows-1251"})
	viper.SetDefault("reader.encoding_aliases", map[string]string{})
	viper.SetDefault("reader.ignore_blank_records", false)
	viper.SetDefault("reader.sample_size", csvreader.DefaultSampleSize)
	viper.SetDefault("reader.conversion_policy", "strict")
	viper.SetDefault("reader.decompress", false)
	viper.SetDefault("reader.legacy_fallback", true)
	viper.SetDefault("detection_cache.provider", "")
	viper.SetDefault("detection_cache.size", 1000)
	viper.SetDefault("detection_cache.ttl", "24h")
	viper.SetDefault("detection_cache.redis_address", "localhost:6379")
	viper.SetDefault("detection_cache.redis_password", "")
	viper.SetDefault("detection_cache.redis_db", 0)
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("server.address", "localhost")
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "")
	viper.SetDefault("output.format", "tsv")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Add specific environment variable for log level
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetLogger() zerolog.Logger {
	return logger
}

// ReaderOptions translates the reader section into csvreader options. The
// detector is not included; callers add one built from the detection cache.
func ReaderOptions(cfg *Config, log zerolog.Logger) ([]csvreader.Option, error) {
	allowed := make([]csvreader.Encoding, 0, len(cfg.Reader.AllowedEncodings))
	for _, name := range cfg.Reader.AllowedEncodings {
		enc, err := csvreader.ParseEncoding(name)
		if err != nil {
			return nil, fmt.Errorf("reader.allowed_encodings: %w", err)
		}
		allowed = append(allowed, enc)
	}

	aliases := make(map[string]csvreader.Encoding, len(cfg.Reader.EncodingAliases))
	for label, name := range cfg.Reader.EncodingAliases {
		enc, err := csvreader.ParseEncoding(name)
		if err != nil {
			return nil, fmt.Errorf("reader.encoding_aliases[%s]: %w", label, err)
		}
		aliases[label] = enc
	}

	policy, err := csvreader.ParseConversionPolicy(cfg.Reader.ConversionPolicy)
	if err != nil {
		return nil, fmt.Errorf("reader.conversion_policy: %w", err)
	}

	opts := []csvreader.Option{
		csvreader.WithEncodingAliases(aliases),
		csvreader.WithIgnoreBlankRecords(cfg.Reader.IgnoreBlankRecords),
		csvreader.WithSampleSize(cfg.Reader.SampleSize),
		csvreader.WithConversionPolicy(policy),
		csvreader.WithDecompression(cfg.Reader.Decompress),
		csvreader.WithLegacyFallback(cfg.Reader.LegacyFallback),
		csvreader.WithLogger(log),
	}
	// An empty list keeps the default set rather than rejecting every file.
	if len(allowed) > 0 {
		opts = append(opts, csvreader.WithAllowedEncodings(allowed...))
	}
	return opts, nil
}

// NewDetectionCache builds the configured detection cache. It returns a nil
// Cache when no provider is configured.
func NewDetectionCache(cfg *Config, log *zerolog.Logger) (cache.Cache, error) {
	dc := cfg.DetectionCache
	if dc.Provider == "" {
		return nil, nil
	}

	ttl, err := time.ParseDuration(dc.TTL)
	if err != nil {
		return nil, fmt.Errorf("detection_cache.ttl: %w", err)
	}

	return cache.New(dc.Provider, cache.ProviderConfig{
		Size:          dc.Size,
		TTL:           ttl,
		Logger:        log,
		RedisAddress:  dc.RedisAddress,
		RedisPassword: dc.RedisPassword,
		RedisDB:       dc.RedisDB,
		Group:         "detection",
	})
}
