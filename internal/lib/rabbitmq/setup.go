package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Ограничения очереди subscription.invoices: её читают внешние потребители,
// поэтому сообщения живут сутки и очередь не растёт дальше maxQueueLength.
const (
	invoiceMessageTTL = int32(24 * 60 * 60 * 1000)
	maxQueueLength    = int32(10000)
)

// QueueConfig очередь, шаблон ключа, которым она привязана к обменнику,
// и аргументы объявления.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
	Args       amqp.Table
}

// EventQueues очереди для событий сессии. Шаблоны в формате topic обменника.
func EventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "subscription.audit", RoutingKey: "#"},
		{
			QueueName:  "subscription.invoices",
			RoutingKey: "invoice.*",
			Args: amqp.Table{
				"x-message-ttl": invoiceMessageTTL,
				"x-max-length":  maxQueueLength,
				"x-overflow":    "drop-head",
			},
		},
	}
}

// SetupChannel открывает канал, объявляет topic обменник exchange и
// привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			q.Args,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			exchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
