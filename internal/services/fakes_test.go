package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"notinha/internal/core"
	"notinha/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

type fakeReceiptStore struct {
	recs      []core.Receipt
	createErr error
}

func (f *fakeReceiptStore) CreateReceipt(_ context.Context, rec core.Receipt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeReceiptStore) GetReceipt(_ context.Context, id uuid.UUID) (core.Receipt, error) {
	for _, rec := range f.recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return core.Receipt{}, core.ErrNotFound
}

func (f *fakeReceiptStore) ListReceipts(_ context.Context, userID string) ([]core.Receipt, error) {
	var out []core.Receipt
	for _, rec := range f.recs {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeReceiptStore) ListReceiptsByPurchaseDate(ctx context.Context, userID string) ([]core.Receipt, error) {
	out, _ := f.ListReceipts(ctx, userID)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchaseDate.After(out[j].PurchaseDate)
	})
	return out, nil
}

func (f *fakeReceiptStore) UpdateReceipt(_ context.Context, rec core.Receipt) error {
	for i := range f.recs {
		if f.recs[i].ID == rec.ID {
			f.recs[i] = rec
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeReceiptStore) DeleteReceipt(_ context.Context, id uuid.UUID) error {
	for i := range f.recs {
		if f.recs[i].ID == id {
			f.recs = append(f.recs[:i], f.recs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

type savedImage struct {
	id       uuid.UUID
	mimeType string
	size     int
}

type fakeImageStore struct {
	saved   []savedImage
	linked  map[uuid.UUID]uuid.UUID // image -> receipt
	saveErr error
}

func (f *fakeImageStore) SaveImage(_ context.Context, id uuid.UUID, mimeType string, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, savedImage{id: id, mimeType: mimeType, size: len(data)})
	return nil
}

func (f *fakeImageStore) LinkImage(_ context.Context, imageID, receiptID uuid.UUID) error {
	if f.linked == nil {
		f.linked = map[uuid.UUID]uuid.UUID{}
	}
	f.linked[imageID] = receiptID
	return nil
}

type fakeProductStore struct {
	mappings map[string]uuid.UUID
	products map[uuid.UUID]core.NormalizedProduct
	byName   map[string]uuid.UUID
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		mappings: map[string]uuid.UUID{},
		products: map[uuid.UUID]core.NormalizedProduct{},
		byName:   map[string]uuid.UUID{},
	}
}

func (f *fakeProductStore) LookupMapping(_ context.Context, originalName string) (core.NormalizedProduct, bool, error) {
	id, ok := f.mappings[originalName]
	if !ok {
		return core.NormalizedProduct{}, false, nil
	}
	return f.products[id], true, nil
}

func (f *fakeProductStore) UpsertNormalizedProduct(_ context.Context, normalizedName string) (core.NormalizedProduct, error) {
	if id, ok := f.byName[normalizedName]; ok {
		return f.products[id], nil
	}
	p := core.NormalizedProduct{ID: uuid.New(), NormalizedName: normalizedName}
	f.products[p.ID] = p
	f.byName[normalizedName] = p.ID
	return p, nil
}

func (f *fakeProductStore) InsertMapping(_ context.Context, originalName string, productID uuid.UUID) error {
	if _, ok := f.mappings[originalName]; !ok {
		f.mappings[originalName] = productID
	}
	return nil
}

func (f *fakeProductStore) GetNormalizedProduct(_ context.Context, id uuid.UUID) (core.NormalizedProduct, error) {
	p, ok := f.products[id]
	if !ok {
		return core.NormalizedProduct{}, core.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductStore) SearchNormalizedProducts(_ context.Context, term string) ([]core.NormalizedProduct, error) {
	term = strings.ToLower(term)
	var out []core.NormalizedProduct
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.NormalizedName), term) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NormalizedName < out[j].NormalizedName })
	return out, nil
}

func (f *fakeProductStore) OriginalNames(_ context.Context, productID uuid.UUID) ([]string, error) {
	var out []string
	for name, id := range f.mappings {
		if id == productID {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeAnalyzer struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeAnalyzer) AnalyzeReceipt(_ context.Context, _ []byte, _ string) (string, error) {
	i := f.calls
	f.calls++
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

type fakeNameNormalizer struct {
	answers map[string]string
	err     error   // fails every call
	errs    []error // per-call errors, indexed like fakeAnalyzer
	calls   int
}

func (f *fakeNameNormalizer) NormalizeName(_ context.Context, productName string) (string, error) {
	i := f.calls
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if answer, ok := f.answers[productName]; ok {
		return answer, nil
	}
	return strings.ToLower(productName), nil
}

type fakeScheduler struct {
	scheduled []uuid.UUID
	err       error
}

func (f *fakeScheduler) ScheduleNormalize(_ context.Context, receiptID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, receiptID)
	return nil
}
