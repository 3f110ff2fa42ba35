package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"notinha/internal/core"
	"notinha/internal/log"
	"notinha/internal/services"
)

const sampleExtraction = `{
	"store_info": {"name": "Mercado Central", "date": "2025-03-10"},
	"items": [
		{"productName": "Arroz Tio João 5kg", "quantity": 1, "unitPrice": 25.90, "total": 25.90},
		{"productName": "Leite Integral", "quantity": 2, "unitPrice": 4.50, "total": 9.00}
	]
}`

type memReceiptStore struct {
	recs []core.Receipt
}

func (f *memReceiptStore) CreateReceipt(_ context.Context, rec core.Receipt) error {
	f.recs = append(f.recs, rec)
	return nil
}

func (f *memReceiptStore) GetReceipt(_ context.Context, id uuid.UUID) (core.Receipt, error) {
	for _, rec := range f.recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return core.Receipt{}, core.ErrNotFound
}

func (f *memReceiptStore) ListReceipts(_ context.Context, userID string) ([]core.Receipt, error) {
	var out []core.Receipt
	for _, rec := range f.recs {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *memReceiptStore) ListReceiptsByPurchaseDate(ctx context.Context, userID string) ([]core.Receipt, error) {
	out, _ := f.ListReceipts(ctx, userID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return out, nil
}

func (f *memReceiptStore) UpdateReceipt(_ context.Context, rec core.Receipt) error {
	for i := range f.recs {
		if f.recs[i].ID == rec.ID {
			f.recs[i] = rec
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *memReceiptStore) DeleteReceipt(_ context.Context, id uuid.UUID) error {
	for i := range f.recs {
		if f.recs[i].ID == id {
			f.recs = append(f.recs[:i], f.recs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

type memImageStore struct {
	mimeTypes map[uuid.UUID]string
	data      map[uuid.UUID][]byte
	byReceipt map[uuid.UUID]uuid.UUID
}

func newMemImageStore() *memImageStore {
	return &memImageStore{
		mimeTypes: map[uuid.UUID]string{},
		data:      map[uuid.UUID][]byte{},
		byReceipt: map[uuid.UUID]uuid.UUID{},
	}
}

func (f *memImageStore) SaveImage(_ context.Context, id uuid.UUID, mimeType string, data []byte) error {
	f.mimeTypes[id] = mimeType
	f.data[id] = data
	return nil
}

func (f *memImageStore) LinkImage(_ context.Context, imageID, receiptID uuid.UUID) error {
	f.byReceipt[receiptID] = imageID
	return nil
}

func (f *memImageStore) GetImageByReceipt(_ context.Context, receiptID uuid.UUID) (string, []byte, error) {
	imageID, ok := f.byReceipt[receiptID]
	if !ok {
		return "", nil, core.ErrNotFound
	}
	return f.mimeTypes[imageID], f.data[imageID], nil
}

type memProductStore struct {
	mappings map[string]uuid.UUID
	products map[uuid.UUID]core.NormalizedProduct
	byName   map[string]uuid.UUID
}

func newMemProductStore() *memProductStore {
	return &memProductStore{
		mappings: map[string]uuid.UUID{},
		products: map[uuid.UUID]core.NormalizedProduct{},
		byName:   map[string]uuid.UUID{},
	}
}

func (f *memProductStore) LookupMapping(_ context.Context, originalName string) (core.NormalizedProduct, bool, error) {
	id, ok := f.mappings[originalName]
	if !ok {
		return core.NormalizedProduct{}, false, nil
	}
	return f.products[id], true, nil
}

func (f *memProductStore) UpsertNormalizedProduct(_ context.Context, normalizedName string) (core.NormalizedProduct, error) {
	if id, ok := f.byName[normalizedName]; ok {
		return f.products[id], nil
	}
	p := core.NormalizedProduct{ID: uuid.New(), NormalizedName: normalizedName}
	f.products[p.ID] = p
	f.byName[normalizedName] = p.ID
	return p, nil
}

func (f *memProductStore) InsertMapping(_ context.Context, originalName string, productID uuid.UUID) error {
	f.mappings[originalName] = productID
	return nil
}

func (f *memProductStore) GetNormalizedProduct(_ context.Context, id uuid.UUID) (core.NormalizedProduct, error) {
	p, ok := f.products[id]
	if !ok {
		return core.NormalizedProduct{}, core.ErrNotFound
	}
	return p, nil
}

func (f *memProductStore) SearchNormalizedProducts(_ context.Context, term string) ([]core.NormalizedProduct, error) {
	term = strings.ToLower(term)
	var out []core.NormalizedProduct
	for _, p := range f.products {
		if strings.Contains(p.NormalizedName, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *memProductStore) OriginalNames(_ context.Context, productID uuid.UUID) ([]string, error) {
	var out []string
	for name, id := range f.mappings {
		if id == productID {
			out = append(out, name)
		}
	}
	return out, nil
}

type memShoppingStore struct {
	items []core.ShoppingListItem
}

func (f *memShoppingStore) CreateShoppingItem(_ context.Context, item core.ShoppingListItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *memShoppingStore) ListShoppingItems(_ context.Context, userID string) ([]core.ShoppingListItem, error) {
	var out []core.ShoppingListItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *memShoppingStore) SetShoppingItemCompleted(_ context.Context, id uuid.UUID, completed bool) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Completed = completed
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *memShoppingStore) DeleteShoppingItem(_ context.Context, id uuid.UUID) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

type scriptedAnalyzer struct {
	responses []string
	err       error
	calls     int
}

func (f *scriptedAnalyzer) AnalyzeReceipt(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

type echoNormalizer struct{}

func (echoNormalizer) NormalizeName(_ context.Context, productName string) (string, error) {
	return strings.ToLower(productName), nil
}

type serverFixture struct {
	server   *Server
	receipts *memReceiptStore
	images   *memImageStore
	products *memProductStore
}

func newServerFixture(analyzer *scriptedAnalyzer) *serverFixture {
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})

	receipts := &memReceiptStore{}
	images := newMemImageStore()
	products := newMemProductStore()
	shopping := &memShoppingStore{}

	normalizer := services.NewNormalizerService(products, echoNormalizer{}, logger)
	ingest := services.NewIngestService(receipts, images, analyzer, nil, services.IngestConfig{
		MaxUploadBytes: 1 << 20,
		MaxAttempts:    1,
		BackoffStep:    time.Millisecond,
	}, logger)
	history := services.NewHistoryService(receipts, products, logger)
	shoppingSvc := services.NewShoppingService(shopping, logger)

	return &serverFixture{
		server:   NewServer("0", ingest, normalizer, history, shoppingSvc, images, 1<<20, logger),
		receipts: receipts,
		images:   images,
		products: products,
	}
}

func (f *serverFixture) do(t *testing.T, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestUploadReceipt(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{responses: []string{sampleExtraction}})

	rr := f.do(t, http.MethodPost, "/api/receipts/upload", "image/jpeg", []byte("fake-jpeg"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rr.Code, rr.Body)
	}

	var rec core.Receipt
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.Store != "Mercado Central" || rec.Total != 34.90 {
		t.Errorf("receipt = %+v", rec)
	}

	// The stored photo is retrievable through the receipt.
	rr = f.do(t, http.MethodGet, "/api/receipts/"+rec.ID.String()+"/image", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("image status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("image content type = %q", got)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{})

	rr := f.do(t, http.MethodPost, "/api/receipts/upload", "application/pdf", []byte("%PDF"))
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rr.Code)
	}
}

func TestUploadMapsOverloadTo503(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{err: errors.New("model down")})

	rr := f.do(t, http.MethodPost, "/api/receipts/upload", "image/png", []byte("img"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503, body %s", rr.Code, rr.Body)
	}
}

func TestUploadMapsGarbageTo422(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{responses: []string{`{"no": "receipt"}`}})

	rr := f.do(t, http.MethodPost, "/api/receipts/upload", "image/png", []byte("img"))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", rr.Code, rr.Body)
	}
}

func TestGetReceiptNotFound(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{})

	rr := f.do(t, http.MethodGet, "/api/receipts/"+uuid.NewString(), "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestSearchProductsShortTerm(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{})

	rr := f.do(t, http.MethodGet, "/api/products?search=a", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var products []core.NormalizedProduct
	if err := json.Unmarshal(rr.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("products = %+v, want empty for a one-rune term", products)
	}
}

func TestDashboardMonthValidation(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{})

	rr := f.do(t, http.MethodGet, "/api/dashboard?month=2025-03", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for YYYY-MM order", rr.Code)
	}

	rr = f.do(t, http.MethodGet, "/api/dashboard?month=03-2025", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body %s", rr.Code, rr.Body)
	}
}

func TestDashboardCacheInvalidation(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{responses: []string{sampleExtraction}})

	rr := f.do(t, http.MethodGet, "/api/dashboard", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatal(rr.Code)
	}
	var before core.Dashboard
	json.Unmarshal(rr.Body.Bytes(), &before)

	rr = f.do(t, http.MethodPost, "/api/receipts/upload", "image/jpeg", []byte("img"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rr.Code)
	}

	rr = f.do(t, http.MethodGet, "/api/dashboard", "", nil)
	var after core.Dashboard
	json.Unmarshal(rr.Body.Bytes(), &after)

	if after.PurchaseCount != before.PurchaseCount+1 {
		t.Errorf("dashboard served stale data after upload: before=%d after=%d",
			before.PurchaseCount, after.PurchaseCount)
	}
}

func TestShoppingListFlow(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{})

	body, _ := json.Marshal(addShoppingRequest{Name: "Café", Quantity: "2"})
	rr := f.do(t, http.MethodPost, "/api/shopping-list", "application/json", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add status = %d", rr.Code)
	}
	var item core.ShoppingListItem
	json.Unmarshal(rr.Body.Bytes(), &item)

	body, _ = json.Marshal(toggleShoppingRequest{Completed: true})
	rr = f.do(t, http.MethodPatch, "/api/shopping-list/"+item.ID.String(), "application/json", body)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("toggle status = %d", rr.Code)
	}

	rr = f.do(t, http.MethodGet, "/api/shopping-list", "", nil)
	var items []core.ShoppingListItem
	json.Unmarshal(rr.Body.Bytes(), &items)
	if len(items) != 1 || !items[0].Completed {
		t.Errorf("items = %+v", items)
	}

	rr = f.do(t, http.MethodDelete, "/api/shopping-list/"+item.ID.String(), "", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
}

func TestUpdateReceiptRecomputesTotal(t *testing.T) {
	f := newServerFixture(&scriptedAnalyzer{responses: []string{sampleExtraction}})

	rr := f.do(t, http.MethodPost, "/api/receipts/upload", "image/jpeg", []byte("img"))
	var rec core.Receipt
	json.Unmarshal(rr.Body.Bytes(), &rec)

	rec.Items = append(rec.Items, core.ReceiptItem{
		ProductName: "Açúcar", Quantity: 1, UnitPrice: 5.10, Total: 5.10,
	})
	rec.Total = 1.00 // must be ignored

	body, _ := json.Marshal(rec)
	rr = f.do(t, http.MethodPut, "/api/receipts/"+rec.ID.String(), "application/json", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body)
	}

	var updated core.Receipt
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.Total != 40.00 {
		t.Errorf("Total = %v, want 40.00", updated.Total)
	}
}
