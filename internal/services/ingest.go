package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notinha/internal/core"
	"notinha/internal/extract"
	"notinha/internal/log"
	"notinha/internal/receipt"
)

// Stage labels where in the ingestion pipeline a receipt currently is, or
// where it failed.
type Stage string

const (
	StageUploading   Stage = "uploading"
	StageExtracting  Stage = "extracting"
	StageValidating  Stage = "validating"
	StagePersisting  Stage = "persisting"
	StageNormalizing Stage = "normalizing"
	StageDone        Stage = "done"
	StageError       Stage = "error"
)

// IngestError wraps a pipeline failure with the stage it happened in.
type IngestError struct {
	Stage Stage
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// IngestConfig bounds the upload and controls extraction retries.
type IngestConfig struct {
	MaxUploadBytes int64
	MaxAttempts    int
	BackoffStep    time.Duration
}

// IngestService runs a receipt image through extraction, validation and
// persistence, then schedules product-name normalization in the background.
// The caller gets the persisted receipt back as soon as storage confirms the
// write; normalization success or failure never changes the outcome.
type IngestService struct {
	receipts  ReceiptStore
	images    ImageStore
	analyzer  extract.ReceiptAnalyzer
	scheduler NormalizeScheduler
	cfg       IngestConfig
	logger    *log.Logger

	// Injected in tests to avoid real backoff sleeps.
	sleep func(time.Duration)
	now   func() time.Time
}

func NewIngestService(receipts ReceiptStore, images ImageStore, analyzer extract.ReceiptAnalyzer, scheduler NormalizeScheduler, cfg IngestConfig, logger *log.Logger) *IngestService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &IngestService{
		receipts:  receipts,
		images:    images,
		analyzer:  analyzer,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger.WithComponent(log.ComponentIngest),
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Ingest processes one uploaded receipt image end to end and returns the
// persisted receipt. Failures carry the stage they happened in via
// *IngestError and wrap the matching core sentinel.
func (s *IngestService) Ingest(ctx context.Context, image []byte, mimeType, userID string) (core.Receipt, error) {
	// Preconditions run before any network or storage work.
	if !strings.HasPrefix(mimeType, "image/") {
		return core.Receipt{}, &IngestError{StageUploading,
			fmt.Errorf("%w: %q", core.ErrUnsupportedMedia, mimeType)}
	}
	if int64(len(image)) > s.cfg.MaxUploadBytes {
		return core.Receipt{}, &IngestError{StageUploading,
			fmt.Errorf("%w: image is %d bytes, limit is %d", core.ErrPrecondition, len(image), s.cfg.MaxUploadBytes)}
	}

	imageID := uuid.New()
	if err := s.images.SaveImage(ctx, imageID, mimeType, image); err != nil {
		return core.Receipt{}, &IngestError{StageUploading, fmt.Errorf("save image: %w", err)}
	}

	s.logger.InfoContext(ctx, "Receipt image stored",
		log.FieldImageSize, len(image),
		log.FieldMimeType, mimeType)

	raw, err := s.extractWithRetry(ctx, image, mimeType)
	if err != nil {
		return core.Receipt{}, &IngestError{StageExtracting, err}
	}

	candidate, err := receipt.ParseCandidate(raw)
	if err != nil {
		return core.Receipt{}, &IngestError{StageValidating, err}
	}

	now := s.now().UTC()
	validated, err := receipt.Validate(candidate, now)
	if err != nil {
		return core.Receipt{}, &IngestError{StageValidating, err}
	}

	rec := core.Receipt{
		ID:           uuid.New(),
		Store:        validated.StoreName,
		PurchaseDate: validated.PurchaseDate,
		Items:        validated.Items,
		Total:        core.SumTotals(validated.Items),
		UserID:       userID,
		CreatedAt:    now,
	}

	if err := s.receipts.CreateReceipt(ctx, rec); err != nil {
		return core.Receipt{}, &IngestError{StagePersisting, fmt.Errorf("create receipt: %w", err)}
	}
	if err := s.images.LinkImage(ctx, imageID, rec.ID); err != nil {
		s.logger.WarnContext(ctx, "Failed to link image to receipt",
			log.FieldReceiptID, rec.ID,
			log.FieldError, err)
	}

	s.logger.InfoContext(ctx, "Receipt persisted",
		log.FieldReceiptID, rec.ID,
		log.FieldStore, rec.Store,
		log.FieldItemCount, len(rec.Items),
		log.FieldTotal, rec.Total)

	s.scheduleNormalize(ctx, rec.ID)
	return rec, nil
}

// extractWithRetry calls the analyzer up to MaxAttempts times with a linear
// backoff between attempts. An empty answer counts as a failure. Exhausting
// the attempts surfaces core.ErrServiceOverloaded.
func (s *IngestService) extractWithRetry(ctx context.Context, image []byte, mimeType string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		raw, err := s.analyzer.AnalyzeReceipt(ctx, image, mimeType)
		if err == nil && strings.TrimSpace(raw) != "" {
			return raw, nil
		}
		if err == nil {
			err = fmt.Errorf("analyzer returned an empty answer")
		}
		lastErr = err

		s.logger.WarnContext(ctx, "Receipt extraction attempt failed",
			log.FieldAttempt, attempt,
			log.FieldError, err)

		if attempt < s.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
			s.sleep(time.Duration(attempt) * s.cfg.BackoffStep)
		}
	}

	return "", fmt.Errorf("%w: %v", core.ErrServiceOverloaded, lastErr)
}

// scheduleNormalize hands the receipt to the scheduler. A missing scheduler
// or a publish failure is logged and swallowed; the receipt is already
// persisted and normalization can be redone later.
func (s *IngestService) scheduleNormalize(ctx context.Context, receiptID uuid.UUID) {
	if s.scheduler == nil {
		s.logger.WarnContext(ctx, "No normalize scheduler configured, skipping",
			log.FieldReceiptID, receiptID)
		return
	}
	if err := s.scheduler.ScheduleNormalize(ctx, receiptID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to schedule normalization",
			log.FieldReceiptID, receiptID,
			log.FieldError, err)
	}
}

// Receipt returns one receipt by ID.
func (s *IngestService) Receipt(ctx context.Context, id uuid.UUID) (core.Receipt, error) {
	return s.receipts.GetReceipt(ctx, id)
}

// Receipts lists the user's receipts, newest first.
func (s *IngestService) Receipts(ctx context.Context, userID string) ([]core.Receipt, error) {
	return s.receipts.ListReceipts(ctx, userID)
}

// UpdateReceipt replaces a receipt wholesale. Per-item consistency flags and
// the receipt total are recomputed from the submitted items; a client cannot
// store a total that disagrees with its lines.
func (s *IngestService) UpdateReceipt(ctx context.Context, rec core.Receipt) (core.Receipt, error) {
	for i := range rec.Items {
		rec.Items[i].ProductName = strings.TrimSpace(rec.Items[i].ProductName)
		rec.Items[i].ValidFormat = itemConsistent(rec.Items[i])
	}
	if strings.TrimSpace(rec.Store) == "" {
		rec.Store = core.UnknownStore
	}
	rec.Total = core.SumTotals(rec.Items)

	if err := s.receipts.UpdateReceipt(ctx, rec); err != nil {
		return core.Receipt{}, err
	}

	s.logger.InfoContext(ctx, "Receipt updated",
		log.FieldReceiptID, rec.ID,
		log.FieldItemCount, len(rec.Items),
		log.FieldTotal, rec.Total)
	return rec, nil
}

// DeleteReceipt removes a receipt and its items.
func (s *IngestService) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	if err := s.receipts.DeleteReceipt(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Receipt deleted", log.FieldReceiptID, id)
	return nil
}

func itemConsistent(item core.ReceiptItem) bool {
	if item.ProductName == "" {
		return false
	}
	if item.Quantity <= 0 {
		return false
	}
	if item.UnitPrice == item.Total {
		return true
	}
	diff := item.Quantity*item.UnitPrice - item.Total
	if diff < 0 {
		diff = -diff
	}
	return diff < core.TotalTolerance
}
