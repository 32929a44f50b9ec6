package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
	Limiter    LimiterConfig    `yaml:"limiter"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	ImageGen   ImageGenConfig   `yaml:"image_gen"`
	Credential CredentialConfig `yaml:"credential"`
	Storage    StorageConfig    `yaml:"storage"`
	Session    SessionConfig    `yaml:"session"`
}

type ServerConfig struct {
	Addr                string `yaml:"addr"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	MaxUploadBytes      int64  `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HTTPClientConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxRetries     int `yaml:"max_retries"`
}

type LimiterConfig struct {
	MaxConcurrent int     `yaml:"max_concurrent"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

type GeminiConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

type ImageGenConfig struct {
	Model       string `yaml:"model"`
	AspectRatio string `yaml:"aspect_ratio"`
}

// CredentialConfig holds the environment-level key and the path of the
// sqlite file used to persist a key connected at runtime.
type CredentialConfig struct {
	APIKey string `yaml:"api_key"`
	DBPath string `yaml:"db_path"`
}

type StorageConfig struct {
	Type     string   `yaml:"type"`
	BasePath string   `yaml:"base_path"`
	BaseURL  string   `yaml:"base_url"`
	S3       S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Bucket       string `yaml:"bucket"`
	UseSSL       bool   `yaml:"use_ssl"`
	PresignHours int    `yaml:"presign_hours"`
}

type SessionConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnvOverrides(cfg), nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return applyEnvOverrides(cfg), nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 0, // SSE runs stream for minutes
			MaxUploadBytes:      20 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTPClient: HTTPClientConfig{
			TimeoutSeconds: 120,
			MaxRetries:     2,
		},
		Limiter: LimiterConfig{
			MaxConcurrent: 4,
			RatePerSecond: 2,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.8,
		},
		ImageGen: ImageGenConfig{
			Model:       "gemini-3-pro-image-preview",
			AspectRatio: "3:4",
		},
		Credential: CredentialConfig{
			DBPath: "./data/credentials.db",
		},
		Storage: StorageConfig{
			Type:     "local",
			BasePath: "./output",
			BaseURL:  "/files",
			S3: S3Config{
				PresignHours: 24,
			},
		},
		Session: SessionConfig{
			TTLMinutes: 120,
		},
	}
}

func applyEnvOverrides(cfg *Config) *Config {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Credential.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Credential.APIKey = v
	}
	if v := os.Getenv("CREDENTIAL_DB_PATH"); v != "" {
		cfg.Credential.DBPath = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("IMAGEGEN_MODEL"); v != "" {
		cfg.ImageGen.Model = v
	}
	if v := os.Getenv("LIMITER_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limiter.MaxConcurrent = n
		}
	}
	if v := os.Getenv("LIMITER_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Limiter.RatePerSecond = f
		}
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("STORAGE_BASE_PATH"); v != "" {
		cfg.Storage.BasePath = v
	}
	if v := os.Getenv("STORAGE_BASE_URL"); v != "" {
		cfg.Storage.BaseURL = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.Storage.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.Storage.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.S3.UseSSL = b
		}
	}
	return cfg
}
