package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server needs from the environment so main
// stays lean. A local .env file is honored for development; in production the
// variables come from the deployment environment.
type Config struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string

	PostgresURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	Vision  VisionConfig
	Storage StorageConfig

	// DirectoryRefreshEvery drives the background wholesale refresh of the
	// user/store directories.
	DirectoryRefreshEvery time.Duration
}

// RedisConfig holds connection tuning for the optional Redis session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the optional attendance event stream settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// VisionConfig points at the vision model used for identity/uniform
// verification and audit analysis.
type VisionConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	// Timeout bounds each verification call at the transport level. The flow
	// itself imposes no deadline.
	Timeout time.Duration
}

// StorageConfig points at the evidence photo bucket.
type StorageConfig struct {
	Endpoint string
	APIKey   string
	Bucket   string
}

// FromEnv builds a Config from environment variables, loading .env first if
// present. Credentials have no hardcoded fallback: missing values disable the
// corresponding adapter and the caller decides whether that is fatal.
func FromEnv() Config {
	_ = godotenv.Load()

	addr := os.Getenv("TIMECLOCK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtKey == "" {
		// Development default - must be overridden in production.
		jwtKey = "dev-secret-key-change-in-production"
	}

	model := os.Getenv("VISION_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	bucket := os.Getenv("STORAGE_BUCKET")
	if bucket == "" {
		bucket = "fichadas"
	}

	refreshEvery := 5 * time.Minute
	if v := os.Getenv("DIRECTORY_REFRESH_EVERY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			refreshEvery = d
		}
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "timeclock.attendance"
	}

	return Config{
		Addr:          addr,
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		JWTSigningKey: jwtKey,
		PostgresURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		Vision: VisionConfig{
			Endpoint: os.Getenv("VISION_ENDPOINT"),
			APIKey:   os.Getenv("VISION_API_KEY"),
			Model:    model,
			Timeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Endpoint: os.Getenv("STORAGE_ENDPOINT"),
			APIKey:   os.Getenv("STORAGE_API_KEY"),
			Bucket:   bucket,
		},
		DirectoryRefreshEvery: refreshEvery,
	}
}
