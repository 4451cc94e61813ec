package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v8"
)

type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"squeeze"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	IdentifyBin    string `env:"IDENTIFY_BIN" envDefault:"identify"`
	ConvertBin     string `env:"CONVERT_BIN" envDefault:"convert"`
	GhostscriptBin string `env:"GS_BIN" envDefault:"gs"`

	DefaultResolution string        `env:"DEFAULT_RESOLUTION" envDefault:"1920x1080"`
	DefaultQuality    int           `env:"DEFAULT_QUALITY" envDefault:"85"`
	DefaultProfile    string        `env:"DEFAULT_PROFILE" envDefault:"ebook"`
	ToolTimeout       time.Duration `env:"TOOL_TIMEOUT" envDefault:"5m"`
	Parallel          int           `env:"PARALLEL" envDefault:"1"`
	TempDir           string        `env:"TEMP_DIR"`

	Port          string `env:"PORT" envDefault:"8080"`
	MaxUploadSize int    `env:"MAX_UPLOAD_SIZE" envDefault:"52428800"`

	RateLimitMaxRequests   int `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"100"`
	RateLimitDurationInSec int `env:"RATE_LIMIT_DURATION_IN_SEC" envDefault:"5"`

	CacheSize int `env:"CACHE_SIZE" envDefault:"256"`

	OtelEnabled bool `env:"OTEL_ENABLED" envDefault:"false"`
	TraceStdout bool `env:"TRACE_STDOUT" envDefault:"false"`

	S3Region    string `env:"S3_REGION"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
}

func New() (*Config, error) {
	conf := &Config{}

	if err := env.Parse(conf); err != nil {
		return nil, err
	}
	if conf.TempDir == "" {
		conf.TempDir = filepath.Join(os.TempDir(), "squeeze")
	}

	return conf, nil
}

func (c *Config) RateLimitDuration() time.Duration {
	return time.Duration(c.RateLimitDurationInSec) * time.Second
}

// S3Enabled reports whether object routes and uploads can be served.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}
