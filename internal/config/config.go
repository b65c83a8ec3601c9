// Package config loads server settings from a .env file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/condo-admin/backend/internal/media"
)

// Config holds every server setting.
type Config struct {
	Addr           string
	DataDir        string
	StaticDir      string
	TokenSecret    string
	TokenTTL       time.Duration
	NotifyTimeout  time.Duration
	RequestTimeout time.Duration
	Media          media.Config
}

// DatabasePath is the SQLite file inside DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "condo-admin.db")
}

// Validate checks settings that have no usable default.
func (c Config) Validate() error {
	if len(c.TokenSecret) < 16 {
		return fmt.Errorf("CONDO_TOKEN_SECRET must be at least 16 characters")
	}
	if c.Media.Driver == media.DriverS3 && c.Media.S3.Bucket == "" {
		return fmt.Errorf("CONDO_MEDIA_S3_BUCKET is required for the s3 media driver")
	}
	return nil
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("CONDO_DATA_DIR", "./data")
	cfg := Config{
		Addr:        getEnv("CONDO_ADDR", ":8080"),
		DataDir:     dataDir,
		StaticDir:   getEnv("CONDO_STATIC_DIR", "./static"),
		TokenSecret: os.Getenv("CONDO_TOKEN_SECRET"),
		Media: media.Config{
			Driver: media.Driver(strings.ToLower(getEnv("CONDO_MEDIA_DRIVER", string(media.DriverFS)))),
			FSRoot: getEnv("CONDO_MEDIA_FS_ROOT", filepath.Join(dataDir, "media")),
			S3: media.S3Config{
				Bucket:   os.Getenv("CONDO_MEDIA_S3_BUCKET"),
				Region:   os.Getenv("CONDO_MEDIA_S3_REGION"),
				Endpoint: os.Getenv("CONDO_MEDIA_S3_ENDPOINT"),
			},
		},
	}

	var err error
	if cfg.TokenTTL, err = getDuration("CONDO_TOKEN_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.NotifyTimeout, err = getDuration("CONDO_NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = getDuration("CONDO_REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return cfg, err
	}
	if cfg.Media.S3.PathStyle, err = getBool("CONDO_MEDIA_S3_PATH_STYLE", false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}
