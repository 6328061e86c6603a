// Package config loads service configuration from the environment.
// All pipeline policy knobs are passive configuration, passed into component
// constructors as immutable values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration holds the full configuration for the service.
type Configuration struct {
	Service       ServiceConfig
	Segmenter     SegmenterConfig
	Dispatch      DispatchConfig
	Translate     TranslateConfig
	Source        SourceConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// SegmenterConfig holds the segmentation policy knobs.
type SegmenterConfig struct {
	SilenceTimeout      time.Duration // close the open block after this much silence
	MinWordsForSentence int           // no punctuation split below this word count
	MaxWordsPerBlock    int           // punctuation split allowed at or above this
	MaxWordsOverflow    int           // hard cap, split regardless of punctuation
}

// DispatchConfig holds the quality-translation dispatch policy knobs.
type DispatchConfig struct {
	MinWordsForLLM int           // blocks below this are never escalated
	MaxWordsForLLM int           // blocks above this are never escalated
	MaxInFlight    int           // simultaneously outstanding quality requests
	MaxRetries     int           // bounded retries before permanent fallback
	RequestTimeout time.Duration // per-attempt quality request budget
}

// TranslateConfig holds the translation backend settings.
type TranslateConfig struct {
	SourceLang  string
	TargetLang  string
	FastBaseURL string        // fast path HTTP endpoint
	FastTimeout time.Duration // fast path budget; timeout yields the unavailable placeholder
	OpenAIModel string
	OpenAIKey   string
}

// SourceConfig holds the transcript source adapter settings.
type SourceConfig struct {
	Provider string // "deepgram" or "mock"
	URL      string // websocket endpoint for the streaming provider
	APIKey   string
}

// KafkaConfig holds the event publisher settings.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicDisplay string
	TopicMessage string
	Principal    string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	MetricsPort string
}

// Load reads configuration from the environment, falling back to defaults
// for missing or invalid values.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-live-interpreter")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Segmenter: SegmenterConfig{
			SilenceTimeout:      envOrDefaultMillis("SILENCE_TIMEOUT_MS", 1500*time.Millisecond),
			MinWordsForSentence: envOrDefaultInt("MIN_WORDS_FOR_SENTENCE", 4),
			MaxWordsPerBlock:    envOrDefaultInt("MAX_WORDS_PER_BLOCK", 20),
			MaxWordsOverflow:    envOrDefaultInt("MAX_WORDS_OVERFLOW", 32),
		},
		Dispatch: DispatchConfig{
			MinWordsForLLM: envOrDefaultInt("MIN_WORDS_FOR_LLM", 5),
			MaxWordsForLLM: envOrDefaultInt("MAX_WORDS_FOR_LLM", 120),
			MaxInFlight:    envOrDefaultInt("DISPATCH_MAX_IN_FLIGHT", 2),
			MaxRetries:     envOrDefaultInt("DISPATCH_MAX_RETRIES", 2),
			RequestTimeout: envOrDefaultMillis("QUALITY_TIMEOUT_MS", 20000*time.Millisecond),
		},
		Translate: TranslateConfig{
			SourceLang:  envOrDefault("SOURCE_LANG", "en"),
			TargetLang:  envOrDefault("TARGET_LANG", "zh"),
			FastBaseURL: envOrDefault("FAST_TRANSLATE_URL", "http://localhost:5000"),
			FastTimeout: envOrDefaultMillis("FAST_TIMEOUT_MS", 800*time.Millisecond),
			OpenAIModel: envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		},
		Source: SourceConfig{
			Provider: envOrDefault("SOURCE_PROVIDER", "mock"),
			URL:      envOrDefault("SOURCE_URL", "wss://api.deepgram.com/v1/listen"),
			APIKey:   os.Getenv("SOURCE_API_KEY"),
		},
		Kafka: KafkaConfig{
			Enabled:      envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:      envOrDefaultList("KAFKA_BROKERS", nil),
			TopicDisplay: envOrDefault("KAFKA_TOPIC_DISPLAY", "interaction.display.update"),
			TopicMessage: envOrDefault("KAFKA_TOPIC_MESSAGE", "interaction.message.upsert"),
			Principal:    envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultMillis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
