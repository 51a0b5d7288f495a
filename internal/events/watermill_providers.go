package events

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/shopkit/shopkit/env"
	"github.com/shopkit/shopkit/models"
)

const defaultConsumerGroup = "shopkit_consumer_group"

// InitWatermillProvider builds the PubSub transport selected by config.
// The zero value falls back to the in-process Go channel transport, which
// needs no external broker.
func InitWatermillProvider(config *models.EventBusConfig, logger watermill.LoggerAdapter) (models.PubSub, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	switch EventBusProvider(config.Provider) {
	case ProviderGoChannel, "":
		return newGoChannelPubSub(logger, config.GoChannel)
	case ProviderRedis:
		return newRedisPubSub(logger, config.Redis)
	case ProviderRabbitMQ:
		return newRabbitMQPubSub(logger, config.RabbitMQ)
	case ProviderKafka:
		return newKafkaPubSub(logger, config.Kafka)
	case ProviderNATS:
		return newNATSPubSub(logger, config.NATS)
	case ProviderPostgres:
		return newPostgresPubSub(logger, config.PostgreSQL)
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", config.Provider)
	}
}

// brokerAddress resolves a broker address, with the environment variable
// taking precedence over the config file.
func brokerAddress(envKey, fromConfig, provider string) (string, error) {
	if addr := os.Getenv(envKey); addr != "" {
		return addr, nil
	}
	if fromConfig != "" {
		return fromConfig, nil
	}
	return "", fmt.Errorf("%s event bus requires an address (set %s or provide config)", provider, envKey)
}

func consumerGroup(fromConfig string) string {
	if group := os.Getenv(env.EnvEventBusConsumerGroup); group != "" {
		return group
	}
	if fromConfig != "" {
		return fromConfig
	}
	return defaultConsumerGroup
}

func newGoChannelPubSub(logger watermill.LoggerAdapter, config *models.GoChannelConfig) (models.PubSub, error) {
	bufferSize := 100
	if config != nil && config.BufferSize > 0 {
		bufferSize = config.BufferSize
	}

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: int64(bufferSize)},
		logger,
	)

	// gochannel is publisher and subscriber in one.
	return NewWatermillPubSub(pubSub, pubSub), nil
}

func newPostgresPubSub(logger watermill.LoggerAdapter, config *models.PostgreSQLConfig) (models.PubSub, error) {
	var fromConfig string
	if config != nil {
		fromConfig = config.URL
	}
	url, err := brokerAddress(env.EnvPostgresURL, fromConfig, "postgres")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	subscriber, err := watermillSQL.NewSubscriber(
		db,
		watermillSQL.SubscriberConfig{
			SchemaAdapter:    watermillSQL.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres subscriber: %w", err)
	}

	publisher, err := watermillSQL.NewPublisher(
		db,
		watermillSQL.PublisherConfig{SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{}},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres publisher: %w", err)
	}

	return NewWatermillPubSub(publisher, subscriber), nil
}

func newRedisPubSub(logger watermill.LoggerAdapter, config *models.RedisConfig) (models.PubSub, error) {
	var fromConfig, group string
	if config != nil {
		fromConfig = config.URL
		group = config.ConsumerGroup
	}
	url, err := brokerAddress(env.EnvRedisURL, fromConfig, "redis")
	if err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	subscriber, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: consumerGroup(group),
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis subscriber: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}

	return NewWatermillPubSub(publisher, subscriber), nil
}

func newKafkaPubSub(logger watermill.LoggerAdapter, config *models.KafkaConfig) (models.PubSub, error) {
	var fromConfig, group string
	if config != nil {
		fromConfig = config.Brokers
		group = config.ConsumerGroup
	}
	brokersStr, err := brokerAddress(env.EnvKafkaBrokers, fromConfig, "kafka")
	if err != nil {
		return nil, err
	}

	var brokers []string
	for b := range strings.SplitSeq(brokersStr, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka event bus requires at least one broker")
	}

	subscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	subscriberConfig.Consumer.Offsets.Initial = sarama.OffsetNewest

	// SyncProducer requires Return.Successes; batching keeps broker load
	// reasonable when webhook bursts fan out into events.
	producerConfig := sarama.NewConfig()
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.Return.Errors = true
	producerConfig.Producer.RequiredAcks = sarama.WaitForLocal
	producerConfig.Producer.Retry.Max = 3
	producerConfig.Producer.Flush.Frequency = 100 * time.Millisecond
	producerConfig.Producer.Flush.Messages = 100
	producerConfig.Producer.Flush.MaxMessages = 1000
	producerConfig.Version = sarama.V4_0_0_0

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			ConsumerGroup:         consumerGroup(group),
			OverwriteSaramaConfig: subscriberConfig,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: producerConfig,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return NewWatermillPubSub(publisher, subscriber), nil
}

func newNATSPubSub(logger watermill.LoggerAdapter, config *models.NatsConfig) (models.PubSub, error) {
	var fromConfig string
	if config != nil {
		fromConfig = config.URL
	}
	url, err := brokerAddress(env.EnvNatsURL, fromConfig, "nats")
	if err != nil {
		return nil, err
	}

	subscriber, err := nats.NewSubscriber(nats.SubscriberConfig{URL: url}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create nats subscriber: %w", err)
	}

	publisher, err := nats.NewPublisher(nats.PublisherConfig{URL: url}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create nats publisher: %w", err)
	}

	return NewWatermillPubSub(publisher, subscriber), nil
}

func newRabbitMQPubSub(logger watermill.LoggerAdapter, config *models.RabbitMQConfig) (models.PubSub, error) {
	var fromConfig string
	if config != nil {
		fromConfig = config.URL
	}
	url, err := brokerAddress(env.EnvRabbitMQURL, fromConfig, "rabbitmq")
	if err != nil {
		return nil, err
	}

	amqpConfig := amqp.NewDurableQueueConfig(url)

	subscriber, err := amqp.NewSubscriber(amqpConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rabbitmq subscriber: %w", err)
	}

	publisher, err := amqp.NewPublisher(amqpConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rabbitmq publisher: %w", err)
	}

	return NewWatermillPubSub(publisher, subscriber), nil
}
