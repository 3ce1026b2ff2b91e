package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	APIKey        string
	AllowedOrigin string

	ModelURL        string
	ModelPath       string
	MetadataPath    string
	OnnxLibraryPath string
	GoogleAPIKey    string

	UploadDir      string
	MaxUploadBytes int64

	ThrottleWindow   time.Duration
	InferenceTimeout time.Duration
	AdmissionStore   string
	AdmissionDSN     string
	TrustedProxies   []string

	LogLevel    string
	Development bool
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", k, v)
	}
	return d, nil
}

func getInt64(k string, def int64) (int64, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", k, n)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile fills unset variables from ENV_FILE (default .env). Variables
// already in the environment win. A missing file is not an error.
func loadEnvFile() error {
	path := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ENV_FILE %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment, after merging in the
// env file. The API secret is not checked here because only the server needs
// it; see RequireAPIKey.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: getEnv("PORT", "5000"),

		APIKey:        os.Getenv("SECRET_API_KEY"),
		AllowedOrigin: getEnv("SECRET_FRONT", "*"),

		ModelURL:        getEnv("SECRET_API_MODEL", ""),
		ModelPath:       getEnv("MODEL_PATH", "model.onnx"),
		OnnxLibraryPath: getEnv("ONNX_LIBRARY_PATH", ""),
		GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		AdmissionStore: strings.ToLower(getEnv("ADMISSION_STORE", "memory")),
		AdmissionDSN:   getEnv("ADMISSION_DSN", "admission.db"),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Development: strings.EqualFold(getEnv("APP_ENV", "production"), "development"),
	}
	cfg.MetadataPath = getEnv("MODEL_METADATA_PATH", cfg.ModelPath+".json")

	var err error
	if cfg.MaxUploadBytes, err = getInt64("MAX_UPLOAD_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if cfg.ThrottleWindow, err = getDuration("THROTTLE_WINDOW", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.InferenceTimeout, err = getDuration("INFERENCE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	switch cfg.AdmissionStore {
	case "memory", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("ADMISSION_STORE: unknown store %q", cfg.AdmissionStore)
	}

	return cfg, nil
}

func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return errors.New("missing required env SECRET_API_KEY")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
