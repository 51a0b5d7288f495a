package env

const (
	// DATABASE

	EnvDatabaseURL = "SHOPKIT_DATABASE_URL"
	EnvPostgresURL = "POSTGRES_URL"

	// REDIS

	EnvRedisURL = "REDIS_URL"

	// EMAIL / SMTP

	EnvResendApiKey = "RESEND_API_KEY"

	EnvSMTPHost  = "SMTP_HOST"
	EnvSMTPPort  = "SMTP_PORT"
	EnvSMTPUser  = "SMTP_USER"
	EnvSMTPPass  = "SMTP_PASS"
	EnvEmailFrom = "FROM_ADDRESS"

	// PAYMENT PROCESSOR

	EnvPaymentAPIKey        = "PAYMENT_API_KEY"
	EnvPaymentWebhookSecret = "PAYMENT_WEBHOOK_SECRET"

	// KAFKA

	EnvKafkaBrokers = "KAFKA_BROKERS"

	// NATS

	EnvNatsURL = "NATS_URL"

	// RabbitMQ

	EnvRabbitMQURL = "RABBITMQ_URL"

	// EVENT BUS

	EnvEventBusConsumerGroup = "EVENT_BUS_CONSUMER_GROUP"

	// SHOPKIT

	EnvConfigPath      = "SHOPKIT_CONFIG_PATH"
	EnvSecret          = "SHOPKIT_SECRET"
	EnvBaseURL         = "SHOPKIT_BASE_URL"
	EnvCachePrefix     = "SHOPKIT_CACHE_PREFIX"
	EnvRateLimitBypass = "SHOPKIT_RATE_LIMIT_BYPASS"

	// ENVIRONMENT

	EnvGoEnvironment = "GO_ENV"
	EnvPort          = "PORT"
)
