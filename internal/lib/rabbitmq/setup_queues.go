package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// NotificationsExchange имя exchange для всех уведомлений сервиса.
const NotificationsExchange = "notifications"

// JobCompletedQueue очередь уведомлений о завершённых задачах обогащения.
const (
	JobCompletedQueue      = "notification.job_completed"
	JobCompletedRoutingKey = "job_completed"
)

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые должны существовать
// до старта публикации и потребления.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: JobCompletedQueue, RoutingKey: JobCompletedRoutingKey},
	}
}

// SetupChannel открывает канал, объявляет exchange и очереди с привязками.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
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
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			NotificationsExchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
