// Package worker runs background product-name normalization for receipts
// already persisted by the server.
package worker

import (
	"context"
	"errors"
	"fmt"

	"notinha/internal/amqp"
	"notinha/internal/core"
	"notinha/internal/log"
	"notinha/internal/services"
)

// NormalizeWorker handles normalize messages from the queue. All item-level
// failures degrade inside the normalizer service; the only hard failure is
// not being able to load the receipt.
type NormalizeWorker struct {
	receipts   services.ReceiptStore
	normalizer *services.NormalizerService
	logger     *log.Logger
}

func NewNormalizeWorker(receipts services.ReceiptStore, normalizer *services.NormalizerService, logger *log.Logger) *NormalizeWorker {
	return &NormalizeWorker{
		receipts:   receipts,
		normalizer: normalizer,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one normalize message. A receipt deleted between publish
// and delivery is logged and dropped, not retried.
func (w *NormalizeWorker) Handle(ctx context.Context, msg *amqp.NormalizeReceiptMessage) error {
	rec, err := w.receipts.GetReceipt(ctx, msg.ReceiptID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "Receipt gone before normalization, dropping message",
				log.FieldReceiptID, msg.ReceiptID)
			return nil
		}
		return fmt.Errorf("load receipt %s: %w", msg.ReceiptID, err)
	}

	w.logger.InfoContext(ctx, "Normalizing receipt items",
		log.FieldReceiptID, rec.ID,
		log.FieldItemCount, len(rec.Items))

	w.normalizer.NormalizeReceiptItems(ctx, rec)
	return nil
}
