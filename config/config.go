package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  int      `env:"SERVER_PORT" env-default:"8088"`
	BasePath    string   `env:"BASE_PATH" env-default:"/api-auth"`
	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:8081,http://localhost:5173,http://localhost:3003,http://localhost:3929,https://trendy-store-vite.vercel.app"`
	Database    DatabaseConfig
	Auth        AuthConfig
	Log         LogConfig
	MQ          MQConfig
	Storage     StorageConfig
}

type DatabaseConfig struct {
	Host         string `env:"DB_HOST" env-default:"localhost"`
	Port         int    `env:"DB_PORT" env-default:"5432"`
	User         string `env:"DB_USER" env-default:"auth"`
	Password     string `env:"DB_PASSWORD" env-default:"password"`
	DBName       string `env:"DB_NAME" env-default:"auth_db"`
	UseSSL       bool   `env:"DB_SSL" env-default:"false"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" env-default:"5"`
}

// AuthConfig holds the token secret and the credential policy.
type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	MaxLoginAttempts int           `env:"LOGIN_MAX_ATTEMPTS" env-default:"5"`
	BcryptCost       int           `env:"BCRYPT_COST" env-default:"8"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// MQConfig selects the account event backend. An empty Backend disables
// event publishing.
type MQConfig struct {
	Backend  string `env:"MQ_BACKEND"`
	Channel  string `env:"AUDIT_CHANNEL" env-default:"account-events"`
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE" env-default:"true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE" env-default:"false"`
	PrefetchCount   int    `env:"RABBITMQ_PREFETCH" env-default:"10"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"PUBSUB_SUBSCRIPTION_SUFFIX" env-default:"-sub"`
}

// StorageConfig selects the object storage used by the audit archiver.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND"`
	Minio   MinioConfig
	GCS     GCSConfig
	S3      S3Config
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" env-default:"auth-audit"`
	UseSSL    bool   `env:"MINIO_USE_SSL" env-default:"false"`
}

type GCSConfig struct {
	ProjectID       string `env:"GCS_PROJECT_ID"`
	Bucket          string `env:"GCS_BUCKET"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

type S3Config struct {
	Region       string `env:"S3_REGION" env-default:"us-east-1"`
	Bucket       string `env:"S3_BUCKET"`
	BaseEndpoint string `env:"S3_BASE_ENDPOINT"`
	AccessKey    string `env:"S3_ACCESS_KEY"`
	SecretKey    string `env:"S3_SECRET_KEY"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// Description renders the supported environment variables, used by the CLI help.
func Description() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
