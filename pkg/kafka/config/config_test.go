package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_SplitsBrokers(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Brokers)
	}
	if cfg.ProducerCompression != DefaultProducerCompression {
		t.Errorf("expected default compression, got %s", cfg.ProducerCompression)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "brotli")
	t.Setenv(EnvKafkaProducerRequireAcks, "2")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "ProducerCompression") || !strings.Contains(err.Error(), "ProducerRequireAcks") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}
