package events

type EventBusProvider string

const (
	ProviderGoChannel EventBusProvider = "gochannel"
	ProviderPostgres  EventBusProvider = "postgres"
	ProviderRedis     EventBusProvider = "redis"
	ProviderKafka     EventBusProvider = "kafka"
	ProviderNATS      EventBusProvider = "nats"
	ProviderRabbitMQ  EventBusProvider = "rabbitmq"
)

func (p EventBusProvider) String() string {
	return string(p)
}

func (p EventBusProvider) Valid() bool {
	switch p {
	case ProviderGoChannel, ProviderPostgres, ProviderRedis, ProviderKafka, ProviderNATS, ProviderRabbitMQ:
		return true
	}
	return false
}

// Domain event types published on the bus.
const (
	EventUserSignedUp      = "user.signed_up"
	EventUserEmailVerified = "user.email_verified"

	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"

	EventPaymentCreated   = "payment.created"
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"

	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionCanceled = "subscription.canceled"
	EventSubscriptionRenewed  = "subscription.renewed"
	EventSubscriptionPastDue  = "subscription.past_due"
)
