package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// PublishMessage публикует сообщение в RabbitMQ в формате JSON.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChannelPublisher адаптер amqp-канала: публикует сообщения в обменник
// доставок с указанным ключом маршрутизации.
type ChannelPublisher struct {
	Channel *amqp.Channel
}

// Publish публикует сообщение в обменник доставок.
func (p ChannelPublisher) Publish(routingKey string, message any) error {
	return PublishMessage(p.Channel, Exchange, routingKey, message)
}
