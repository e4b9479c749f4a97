package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aq2208/gorder-seed/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RunRequestRoutingKey = "seed.run.request"
	RunRequestQueue      = "seed.run.request.q"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitProducer implements usecase.EventPublisher
type RabbitProducer struct {
	ch         publishChannel
	exchange   string
	routingKey string
}

// DeclareTopology sets up the topic exchange and, when requestQueue is set,
// the durable run-request queue bound to it.
func DeclareTopology(ch *amqp.Channel, exchange, requestQueue string) error {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if requestQueue == "" {
		return nil
	}

	q, err := ch.QueueDeclare(requestQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, RunRequestRoutingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

func NewRabbitProducer(ch *amqp.Channel, exchange, routingKey string) *RabbitProducer {
	return &RabbitProducer{ch: ch, exchange: exchange, routingKey: routingKey}
}

func (p *RabbitProducer) PublishRunCompleted(ctx context.Context, msg usecase.RunCompletedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.RunID,
		Timestamp:    msg.FinishedAt,
		Type:         p.routingKey,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)
