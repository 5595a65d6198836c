package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transport names accepted in TRANSPORT.
const (
	TransportMemory   = "memory"
	TransportNATS     = "nats"
	TransportRabbitMQ = "rabbitmq"
	TransportKafka    = "kafka"
	TransportRedis    = "redis"
	TransportMQTT     = "mqtt"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	Transport     string
	NATSURL       string
	RabbitMQURL   string
	KafkaBrokers  []string
	KafkaClientID string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MQTTBroker    string
	MQTTClientID  string

	MessageCount int
	SendTimeout  time.Duration
	ConnTimeout  time.Duration

	LogLevel  string
	LogFormat string

	DestinationsFile string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error

	cfg := &Config{
		HTTPHost:         getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		Transport:        strings.ToLower(getEnv("TRANSPORT", TransportMemory)),
		NATSURL:          getEnv("NATS_URL", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaClientID:    getEnv("KAFKA_CLIENT_ID", "mdbclient"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		MQTTBroker:       getEnv("MQTT_BROKER", ""),
		MQTTClientID:     getEnv("MQTT_CLIENT_ID", "mdbclient"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DestinationsFile: getEnv("DESTINATIONS_FILE", ""),
	}

	cfg.RedisDB = getEnvInt("REDIS_DB", 0, &errs)
	cfg.MessageCount = getEnvInt("MESSAGE_COUNT", 5, &errs)
	cfg.SendTimeout = getEnvDuration("SEND_TIMEOUT", 0, &errs)
	cfg.ConnTimeout = getEnvDuration("CONN_TIMEOUT", 5*time.Second, &errs)

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch c.Transport {
	case TransportMemory, TransportNATS, TransportRabbitMQ, TransportKafka, TransportRedis, TransportMQTT:
	default:
		errs = append(errs, fmt.Errorf("unsupported TRANSPORT: %s", c.Transport))
	}

	if c.MessageCount < 0 {
		errs = append(errs, fmt.Errorf("MESSAGE_COUNT must not be negative: %d", c.MessageCount))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_FORMAT: %s", c.LogFormat))
	}

	return errors.Join(errs...)
}

// HTTPAddr is the listen address for the HTTP server.
func (c *Config) HTTPAddr() string { return net.JoinHostPort(c.HTTPHost, c.HTTPPort) }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}

	return v
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}

	return v
}

func splitList(s string) []string {
	var out []string

	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
