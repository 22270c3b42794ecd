package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	ACRCloud  ACRCloudConfig
	Places    PlacesConfig
	Base44    Base44Config
	R2        R2Config
	SQLite    SQLiteConfig
	Spyn      SpynConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	RecognizePerMin int
	UploadPerHour   int
	ChatPerMin      int
	PlacesPerMin    int
}

// ACRCloudConfig configures the audio recognition service.
type ACRCloudConfig struct {
	Host         string
	AccessKey    string
	AccessSecret string
	Timeout      int // seconds
}

// PlacesConfig configures the venue lookup proxy.
type PlacesConfig struct {
	APIKey  string
	BaseURL string
	Radius  int // meters
}

// Base44Config configures the hosted backend platform used for reward
// issuance and producer notifications.
type Base44Config struct {
	BaseURL string
	APIKey  string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type SQLiteConfig struct {
	Path string
}

// SpynConfig holds session engine timing. Durations are parsed from
// Go duration strings so tests and staging can shrink them.
type SpynConfig struct {
	RecognitionInterval time.Duration
	RecordingDuration   time.Duration
	MaxSessionDuration  time.Duration
	CaptureCommand      string
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("ACRCLOUD_ACCESS_KEY")
	readSecret("ACRCLOUD_ACCESS_SECRET")
	readSecret("GOOGLE_PLACES_API_KEY")
	readSecret("BASE44_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults
	viper.SetDefault("server.port", "8001")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.recognize_per_min", 30)
	viper.SetDefault("ratelimit.upload_per_hour", 50)
	viper.SetDefault("ratelimit.chat_per_min", 60)
	viper.SetDefault("ratelimit.places_per_min", 30)
	viper.SetDefault("acrcloud.host", "identify-eu-west-1.acrcloud.com")
	viper.SetDefault("acrcloud.timeout", 30)
	viper.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api/place")
	viper.SetDefault("places.radius", 5000)
	viper.SetDefault("base44.base_url", "")
	viper.SetDefault("sqlite.path", "spynners.db")
	viper.SetDefault("spyn.recognition_interval", "12s")
	viper.SetDefault("spyn.recording_duration", "8s")
	viper.SetDefault("spyn.max_session_duration", "5h")
	viper.SetDefault("spyn.capture_command", "")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			RecognizePerMin: viper.GetInt("ratelimit.recognize_per_min"),
			UploadPerHour:   viper.GetInt("ratelimit.upload_per_hour"),
			ChatPerMin:      viper.GetInt("ratelimit.chat_per_min"),
			PlacesPerMin:    viper.GetInt("ratelimit.places_per_min"),
		},
		ACRCloud: ACRCloudConfig{
			Host:         viper.GetString("acrcloud.host"),
			AccessKey:    viper.GetString("ACRCLOUD_ACCESS_KEY"),
			AccessSecret: viper.GetString("ACRCLOUD_ACCESS_SECRET"),
			Timeout:      viper.GetInt("acrcloud.timeout"),
		},
		Places: PlacesConfig{
			APIKey:  viper.GetString("GOOGLE_PLACES_API_KEY"),
			BaseURL: viper.GetString("places.base_url"),
			Radius:  viper.GetInt("places.radius"),
		},
		Base44: Base44Config{
			BaseURL: viper.GetString("base44.base_url"),
			APIKey:  viper.GetString("BASE44_API_KEY"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("R2_ACCOUNT_ID"),
			AccessKeyID:     viper.GetString("R2_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("R2_SECRET_ACCESS_KEY"),
			BucketName:      viper.GetString("R2_BUCKET_NAME"),
			PublicURL:       viper.GetString("R2_PUBLIC_URL"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("sqlite.path"),
		},
		Spyn: SpynConfig{
			RecognitionInterval: viper.GetDuration("spyn.recognition_interval"),
			RecordingDuration:   viper.GetDuration("spyn.recording_duration"),
			MaxSessionDuration:  viper.GetDuration("spyn.max_session_duration"),
			CaptureCommand:      viper.GetString("spyn.capture_command"),
		},
	}

	return cfg, nil
}
