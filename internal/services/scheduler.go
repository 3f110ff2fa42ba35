package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"notinha/internal/amqp"
	"notinha/internal/log"
)

// AMQPScheduler publishes normalize messages to the queue consumed by the
// worker binary.
type AMQPScheduler struct {
	client *amqp.Client
}

func NewAMQPScheduler(client *amqp.Client) *AMQPScheduler {
	return &AMQPScheduler{client: client}
}

func (s *AMQPScheduler) ScheduleNormalize(ctx context.Context, receiptID uuid.UUID) error {
	return s.client.PublishNormalizeReceipt(ctx, amqp.NewNormalizeReceiptMessage(receiptID))
}

// LocalScheduler normalizes in-process on a detached goroutine. It is the
// fallback when no AMQP broker is configured, typically single-binary and
// development setups.
type LocalScheduler struct {
	receipts   ReceiptStore
	normalizer *NormalizerService
	logger     *log.Logger
	timeout    time.Duration
}

func NewLocalScheduler(receipts ReceiptStore, normalizer *NormalizerService, logger *log.Logger) *LocalScheduler {
	return &LocalScheduler{
		receipts:   receipts,
		normalizer: normalizer,
		logger:     logger.WithComponent(log.ComponentNormalizer),
		timeout:    2 * time.Minute,
	}
}

// ScheduleNormalize detaches from the caller's context so request completion
// does not cancel the background work.
func (s *LocalScheduler) ScheduleNormalize(_ context.Context, receiptID uuid.UUID) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		rec, err := s.receipts.GetReceipt(ctx, receiptID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to load receipt for normalization",
				log.FieldReceiptID, receiptID,
				log.FieldError, err)
			return
		}
		s.normalizer.NormalizeReceiptItems(ctx, rec)
	}()
	return nil
}
