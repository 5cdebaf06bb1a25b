package rabbitmq

// Маршрутные ключи событий сервиса доставки.
const (
	JobEventsRoutingKey    = "job"
	ExpiryNoticeRoutingKey = "expiry"
)

// QueueConfig описание одной очереди с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// DeliveryQueues очереди сервиса: терминальные события заданий и
// уведомления об истекающих премиум-тарифах.
func DeliveryQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "deliveries.jobs", RoutingKey: JobEventsRoutingKey},
		{QueueName: "deliveries.expiry", RoutingKey: ExpiryNoticeRoutingKey},
	}
}
