package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/next-trace/scg-mdb-client/adapters/kafka"
	"github.com/next-trace/scg-mdb-client/adapters/mqtt"
	"github.com/next-trace/scg-mdb-client/adapters/nats"
	"github.com/next-trace/scg-mdb-client/adapters/rabbitmq"
	"github.com/next-trace/scg-mdb-client/adapters/redisstream"
	"github.com/next-trace/scg-mdb-client/catalog"
	"github.com/next-trace/scg-mdb-client/config"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"github.com/next-trace/scg-mdb-client/memory"
)

// openTransport connects the configured transport. The memory transport is
// provisioned with every destination of cat. hp is attached to transports
// that carry message headers.
func openTransport(
	ctx context.Context,
	cfg *config.Config,
	cat catalog.Catalog,
	hp messaging.HeaderPropagator,
	logger *slog.Logger,
) (messaging.Connection, func(), error) { //nolint:ireturn
	switch cfg.Transport {
	case config.TransportMemory:
		return memory.Provision(cat), func() {}, nil
	case config.TransportNATS:
		ad, cleanup, err := nats.NewWithNATS(nats.Config{
			URL:         cfg.NATSURL,
			Name:        "mdbclient",
			ConnTimeout: cfg.ConnTimeout,
			Logger:      logger,
		})
		if err != nil {
			return nil, nil, err
		}

		ad.Propagator = hp

		return ad, cleanup, nil
	case config.TransportRabbitMQ:
		ad, cleanup, err := rabbitmq.NewWithAMQPConn(rabbitmq.Config{
			URL:         cfg.RabbitMQURL,
			ConnTimeout: cfg.ConnTimeout,
		})
		if err != nil {
			return nil, nil, err
		}

		ad.Propagator = hp

		return ad, cleanup, nil
	case config.TransportKafka:
		ad, cleanup, err := kafka.NewWithKgo(kafka.Config{
			Brokers:    cfg.KafkaBrokers,
			ClientID:   cfg.KafkaClientID,
			Idempotent: true,
		})
		if err != nil {
			return nil, nil, err
		}

		ad.Propagator = hp

		return ad, cleanup, nil
	case config.TransportRedis:
		ad, cleanup, err := redisstream.NewWithRedis(ctx, redisstream.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}

		ad.Propagator = hp

		return ad, cleanup, nil
	case config.TransportMQTT:
		ad, cleanup, err := mqtt.NewWithPaho(mqtt.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			QoS:         1,
			ConnTimeout: cfg.ConnTimeout,
		})
		if err != nil {
			return nil, nil, err
		}

		return ad, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported TRANSPORT: %s", cfg.Transport)
	}
}
