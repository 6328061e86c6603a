package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t,
		"SERVICE_PRINCIPAL", "HTTP_PORT", "LOG_LEVEL", "METRICS_PORT",
		"SILENCE_TIMEOUT_MS", "MIN_WORDS_FOR_SENTENCE", "MAX_WORDS_PER_BLOCK", "MAX_WORDS_OVERFLOW",
		"MIN_WORDS_FOR_LLM", "MAX_WORDS_FOR_LLM", "DISPATCH_MAX_IN_FLIGHT", "DISPATCH_MAX_RETRIES",
		"QUALITY_TIMEOUT_MS", "FAST_TIMEOUT_MS", "SOURCE_LANG", "TARGET_LANG",
		"SOURCE_PROVIDER", "KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL",
	)

	cfg := Load()

	if cfg.Service.Principal != "svc-live-interpreter" {
		t.Errorf("expected default principal 'svc-live-interpreter', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default HTTP port '8080', got %s", cfg.Service.HTTPPort)
	}

	// Segmenter defaults
	if cfg.Segmenter.SilenceTimeout != 1500*time.Millisecond {
		t.Errorf("expected default silence timeout 1.5s, got %v", cfg.Segmenter.SilenceTimeout)
	}
	if cfg.Segmenter.MinWordsForSentence != 4 {
		t.Errorf("expected default min words for sentence 4, got %d", cfg.Segmenter.MinWordsForSentence)
	}
	if cfg.Segmenter.MaxWordsPerBlock != 20 {
		t.Errorf("expected default max words per block 20, got %d", cfg.Segmenter.MaxWordsPerBlock)
	}
	if cfg.Segmenter.MaxWordsOverflow != 32 {
		t.Errorf("expected default overflow cap 32, got %d", cfg.Segmenter.MaxWordsOverflow)
	}

	// Dispatch defaults
	if cfg.Dispatch.MinWordsForLLM != 5 {
		t.Errorf("expected default min words for LLM 5, got %d", cfg.Dispatch.MinWordsForLLM)
	}
	if cfg.Dispatch.MaxWordsForLLM != 120 {
		t.Errorf("expected default max words for LLM 120, got %d", cfg.Dispatch.MaxWordsForLLM)
	}
	if cfg.Dispatch.MaxInFlight != 2 {
		t.Errorf("expected default max in flight 2, got %d", cfg.Dispatch.MaxInFlight)
	}
	if cfg.Dispatch.MaxRetries != 2 {
		t.Errorf("expected default max retries 2, got %d", cfg.Dispatch.MaxRetries)
	}

	// Source defaults
	if cfg.Source.Provider != "mock" {
		t.Errorf("expected default source provider 'mock', got %s", cfg.Source.Provider)
	}

	// Kafka defaults
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.TopicDisplay != "interaction.display.update" {
		t.Errorf("unexpected default display topic %s", cfg.Kafka.TopicDisplay)
	}
	if cfg.Kafka.TopicMessage != "interaction.message.upsert" {
		t.Errorf("unexpected default message topic %s", cfg.Kafka.TopicMessage)
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("SILENCE_TIMEOUT_MS", "2000")
	os.Setenv("MAX_WORDS_PER_BLOCK", "30")
	os.Setenv("MAX_WORDS_OVERFLOW", "50")
	os.Setenv("DISPATCH_MAX_IN_FLIGHT", "4")
	os.Setenv("TARGET_LANG", "ja")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	defer clearEnv(t,
		"SERVICE_PRINCIPAL", "SILENCE_TIMEOUT_MS", "MAX_WORDS_PER_BLOCK",
		"MAX_WORDS_OVERFLOW", "DISPATCH_MAX_IN_FLIGHT", "TARGET_LANG",
		"KAFKA_ENABLED", "KAFKA_BROKERS",
	)

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Segmenter.SilenceTimeout != 2*time.Second {
		t.Errorf("expected silence timeout 2s, got %v", cfg.Segmenter.SilenceTimeout)
	}
	if cfg.Segmenter.MaxWordsPerBlock != 30 {
		t.Errorf("expected max words per block 30, got %d", cfg.Segmenter.MaxWordsPerBlock)
	}
	if cfg.Segmenter.MaxWordsOverflow != 50 {
		t.Errorf("expected overflow cap 50, got %d", cfg.Segmenter.MaxWordsOverflow)
	}
	if cfg.Dispatch.MaxInFlight != 4 {
		t.Errorf("expected max in flight 4, got %d", cfg.Dispatch.MaxInFlight)
	}
	if cfg.Translate.TargetLang != "ja" {
		t.Errorf("expected target lang 'ja', got %s", cfg.Translate.TargetLang)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "broker-1:9092" || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("SILENCE_TIMEOUT_MS", "not-a-number")
	os.Setenv("MAX_WORDS_PER_BLOCK", "invalid")
	os.Setenv("DISPATCH_MAX_RETRIES", "invalid")
	os.Setenv("KAFKA_ENABLED", "invalid")

	defer clearEnv(t, "SILENCE_TIMEOUT_MS", "MAX_WORDS_PER_BLOCK", "DISPATCH_MAX_RETRIES", "KAFKA_ENABLED")

	cfg := Load()

	if cfg.Segmenter.SilenceTimeout != 1500*time.Millisecond {
		t.Errorf("expected default silence timeout on invalid input, got %v", cfg.Segmenter.SilenceTimeout)
	}
	if cfg.Segmenter.MaxWordsPerBlock != 20 {
		t.Errorf("expected default max words per block on invalid input, got %d", cfg.Segmenter.MaxWordsPerBlock)
	}
	if cfg.Dispatch.MaxRetries != 2 {
		t.Errorf("expected default max retries on invalid input, got %d", cfg.Dispatch.MaxRetries)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled on invalid input")
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvOrDefaultMillis_RejectsNonPositive(t *testing.T) {
	os.Setenv("TEST_MS_VAR", "0")
	defer os.Unsetenv("TEST_MS_VAR")

	if got := envOrDefaultMillis("TEST_MS_VAR", time.Second); got != time.Second {
		t.Errorf("expected default for zero value, got %v", got)
	}
}
