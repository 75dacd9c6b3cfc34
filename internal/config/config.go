package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	HTTPPort     string `mapstructure:"HTTP_PORT"`
	TriagePort   string `mapstructure:"TRIAGE_PORT"`
	IngestAPIKey string `mapstructure:"INGEST_API_KEY"`
	StaticDir    string `mapstructure:"STATIC_DIR"`

	IngestBatchSize    int           `mapstructure:"INGEST_BATCH_SIZE"`
	IngestFlushTimeout time.Duration `mapstructure:"INGEST_FLUSH_TIMEOUT"`

	RabbitMQEnabled        bool          `mapstructure:"RABBITMQ_ENABLED"`
	RabbitMQHost           string        `mapstructure:"RABBITMQ_HOST"`
	RabbitMQPort           int           `mapstructure:"RABBITMQ_PORT"`
	RabbitMQUsername       string        `mapstructure:"RABBITMQ_USERNAME"`
	RabbitMQPassword       string        `mapstructure:"RABBITMQ_PASSWORD"`
	RabbitMQVHost          string        `mapstructure:"RABBITMQ_VHOST"`
	RabbitMQQueueName      string        `mapstructure:"RABBITMQ_QUEUE_NAME"`
	RabbitMQPrefetchCount  int           `mapstructure:"RABBITMQ_PREFETCH_COUNT"`
	RabbitMQReconnectDelay time.Duration `mapstructure:"RABBITMQ_RECONNECT_DELAY"`

	StoreBackend     string `mapstructure:"STORE_BACKEND"`
	QdrantHost       string `mapstructure:"QDRANT_HOST"`
	QdrantPort       int    `mapstructure:"QDRANT_PORT"`
	QdrantAPIKey     string `mapstructure:"QDRANT_API_KEY"`
	QdrantCollection string `mapstructure:"QDRANT_COLLECTION"`
	DatabaseURL      string `mapstructure:"DATABASE_URL"`

	LLMProvider string        `mapstructure:"LLM_PROVIDER"`
	LLMAPIKey   string        `mapstructure:"LLM_API_KEY"`
	LLMModel    string        `mapstructure:"LLM_MODEL"`
	LLMBaseURL  string        `mapstructure:"LLM_BASE_URL"`
	LLMTimeout  time.Duration `mapstructure:"LLM_TIMEOUT"`
}

var defaults = map[string]any{
	"ENV":                      "dev",
	"LOG_LEVEL":                "info",
	"CORS_ALLOWED_ORIGINS":     "*",
	"REQUEST_TIMEOUT":          "30s",
	"HTTP_PORT":                "8001",
	"TRIAGE_PORT":              "8000",
	"INGEST_API_KEY":           "",
	"STATIC_DIR":               "frontend",
	"INGEST_BATCH_SIZE":        10,
	"INGEST_FLUSH_TIMEOUT":     "10s",
	"RABBITMQ_ENABLED":         false,
	"RABBITMQ_HOST":            "localhost",
	"RABBITMQ_PORT":            5672,
	"RABBITMQ_USERNAME":        "guest",
	"RABBITMQ_PASSWORD":        "guest",
	"RABBITMQ_VHOST":           "/",
	"RABBITMQ_QUEUE_NAME":      "INCIDENT_TRIAGE_LOGS",
	"RABBITMQ_PREFETCH_COUNT":  20,
	"RABBITMQ_RECONNECT_DELAY": "5s",
	"STORE_BACKEND":            "qdrant",
	"QDRANT_HOST":              "localhost",
	"QDRANT_PORT":              6333,
	"QDRANT_API_KEY":           "",
	"QDRANT_COLLECTION":        "payment_logs",
	"DATABASE_URL":             "",
	"LLM_PROVIDER":             "openai",
	"LLM_API_KEY":              "",
	"LLM_MODEL":                "",
	"LLM_BASE_URL":             "",
	"LLM_TIMEOUT":              "60s",
}

// aliases keeps the OpenAI-specific variable names working.
var aliases = map[string][]string{
	"LLM_API_KEY": {"OPENAI_API_KEY"},
	"LLM_MODEL":   {"OPENAI_MODEL"},
}

func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile reads an optional env-format file and overlays the process environment.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
		// first element is the config key, the rest are env names tried in order
		if err := v.BindEnv(append([]string{key, key}, aliases[key]...)...); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.IngestBatchSize < 1 {
		return Config{}, fmt.Errorf("INGEST_BATCH_SIZE must be positive, got %d", cfg.IngestBatchSize)
	}
	return cfg, nil
}

func (c Config) RabbitMQURL() string {
	vhost := c.RabbitMQVHost
	if vhost == "/" {
		vhost = ""
	}
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RabbitMQUsername, c.RabbitMQPassword),
		Host:   net.JoinHostPort(c.RabbitMQHost, strconv.Itoa(c.RabbitMQPort)),
		Path:   "/" + vhost,
	}
	return u.String()
}

func (c Config) QdrantURL() string {
	return "http://" + net.JoinHostPort(c.QdrantHost, strconv.Itoa(c.QdrantPort))
}
