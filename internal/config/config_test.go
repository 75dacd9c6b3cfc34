package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IngestBatchSize != 10 {
		t.Fatalf("expected batch size 10, got %d", cfg.IngestBatchSize)
	}
	if cfg.RabbitMQQueueName != "INCIDENT_TRIAGE_LOGS" {
		t.Fatalf("unexpected queue: %s", cfg.RabbitMQQueueName)
	}
	if cfg.RabbitMQPrefetchCount != 20 {
		t.Fatalf("expected prefetch 20, got %d", cfg.RabbitMQPrefetchCount)
	}
	if cfg.QdrantCollection != "payment_logs" {
		t.Fatalf("unexpected collection: %s", cfg.QdrantCollection)
	}
	if cfg.LLMModel != "" {
		t.Fatalf("expected model left to the provider default, got %s", cfg.LLMModel)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("unexpected llm timeout: %s", cfg.LLMTimeout)
	}
	if cfg.RabbitMQEnabled {
		t.Fatalf("expected rabbitmq disabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("INGEST_BATCH_SIZE", "25")
	t.Setenv("RABBITMQ_ENABLED", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IngestBatchSize != 25 {
		t.Fatalf("expected batch size 25, got %d", cfg.IngestBatchSize)
	}
	if !cfg.RabbitMQEnabled {
		t.Fatalf("expected rabbitmq enabled")
	}
	if cfg.LLMAPIKey != "sk-test" {
		t.Fatalf("expected OPENAI_API_KEY alias to populate LLM_API_KEY, got %q", cfg.LLMAPIKey)
	}
	if cfg.StoreBackend != "memory" {
		t.Fatalf("unexpected backend: %s", cfg.StoreBackend)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("QDRANT_COLLECTION=logs_test\nHTTP_PORT=9001\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.QdrantCollection != "logs_test" {
		t.Fatalf("expected collection from file, got %s", cfg.QdrantCollection)
	}
	if cfg.HTTPPort != "9001" {
		t.Fatalf("expected port from file, got %s", cfg.HTTPPort)
	}
}

func TestLoadRejectsNonPositiveBatch(t *testing.T) {
	t.Setenv("INGEST_BATCH_SIZE", "0")
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestRabbitMQURL(t *testing.T) {
	cfg := Config{RabbitMQUsername: "guest", RabbitMQPassword: "p@ss", RabbitMQHost: "mq", RabbitMQPort: 5672, RabbitMQVHost: "/"}
	if got := cfg.RabbitMQURL(); got != "amqp://guest:p%40ss@mq:5672/" {
		t.Fatalf("unexpected url: %s", got)
	}
}
