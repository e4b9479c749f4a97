package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/aq2208/gorder-seed/internal/logging"
	"github.com/aq2208/gorder-seed/internal/usecase"
)

// RunCompletedProducer writes run-completed events keyed by run id.
type RunCompletedProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewRunCompletedProducer(p sarama.SyncProducer, topic string) *RunCompletedProducer {
	return &RunCompletedProducer{producer: p, topic: topic}
}

func (p *RunCompletedProducer) PublishRunCompleted(ctx context.Context, msg usecase.RunCompletedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.RunID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte("application/json")},
			{Key: []byte("event"), Value: []byte("seed.run.completed")},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka send: %w", err)
	}
	logging.FromCtx(ctx).Debug("run event sent", "topic", p.topic, "partition", partition, "offset", offset)
	return nil
}

func (p *RunCompletedProducer) Close() error { return p.producer.Close() }

var _ usecase.EventPublisher = (*RunCompletedProducer)(nil)
