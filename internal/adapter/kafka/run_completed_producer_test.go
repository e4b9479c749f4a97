package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aq2208/gorder-seed/internal/usecase"
)

func TestRunCompletedProducer_SendsJSON(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg usecase.RunCompletedMsg
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg.RunID != "run-1" || msg.Orders != 20 {
			return errors.New("unexpected payload")
		}
		return nil
	})

	p := NewRunCompletedProducer(sp, "seed.runs")
	require.NoError(t, p.PublishRunCompleted(context.Background(), usecase.RunCompletedMsg{RunID: "run-1", Orders: 20}))
	require.NoError(t, p.Close())
}

func TestRunCompletedProducer_SendFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewRunCompletedProducer(sp, "seed.runs")
	err := p.PublishRunCompleted(context.Background(), usecase.RunCompletedMsg{RunID: "run-2"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestNewProducerConfig(t *testing.T) {
	cfg := NewProducerConfig("order-seed")
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.NoError(t, cfg.Validate())
}
