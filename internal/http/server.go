// Package http exposes the receipt tracker over a JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"notinha/internal/cache"
	"notinha/internal/core"
	"notinha/internal/log"
	"notinha/internal/middleware/trace"
	"notinha/internal/services"
)

// ImageReader retrieves the stored photo for a receipt.
type ImageReader interface {
	GetImageByReceipt(ctx context.Context, receiptID uuid.UUID) (string, []byte, error)
}

// Server wires the services to their routes.
type Server struct {
	ingest     *services.IngestService
	normalizer *services.NormalizerService
	history    *services.HistoryService
	shopping   *services.ShoppingService
	images     ImageReader
	logger     *log.Logger

	maxUploadBytes int64
	dashCache      *cache.LRU[core.Dashboard]

	httpServer *http.Server
}

func NewServer(
	port string,
	ingest *services.IngestService,
	normalizer *services.NormalizerService,
	history *services.HistoryService,
	shopping *services.ShoppingService,
	images ImageReader,
	maxUploadBytes int64,
	logger *log.Logger,
) *Server {
	s := &Server{
		ingest:         ingest,
		normalizer:     normalizer,
		history:        history,
		shopping:       shopping,
		images:         images,
		logger:         logger.WithComponent(log.ComponentHTTP),
		maxUploadBytes: maxUploadBytes,
		dashCache:      cache.NewLRU[core.Dashboard](64, 5*time.Minute),
	}

	tracer := trace.NewMiddleware(logger)
	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      tracer.Handler(s.routes()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// DashboardCache exposes the dashboard cache for expiry sweeps.
func (s *Server) DashboardCache() cache.Cleaner {
	return s.dashCache
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/receipts/upload", s.handleUploadReceipt)
	mux.HandleFunc("GET /api/receipts", s.handleListReceipts)
	mux.HandleFunc("GET /api/receipts/{id}", s.handleGetReceipt)
	mux.HandleFunc("PUT /api/receipts/{id}", s.handleUpdateReceipt)
	mux.HandleFunc("DELETE /api/receipts/{id}", s.handleDeleteReceipt)
	mux.HandleFunc("GET /api/receipts/{id}/image", s.handleReceiptImage)

	mux.HandleFunc("GET /api/products", s.handleSearchProducts)
	mux.HandleFunc("GET /api/products/similar", s.handleSimilarProducts)
	mux.HandleFunc("GET /api/products/{id}/history", s.handleProductHistory)
	mux.HandleFunc("GET /api/products/history", s.handleProductHistoryByName)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/shopping-list", s.handleListShopping)
	mux.HandleFunc("POST /api/shopping-list", s.handleAddShopping)
	mux.HandleFunc("PATCH /api/shopping-list/{id}", s.handleToggleShopping)
	mux.HandleFunc("DELETE /api/shopping-list/{id}", s.handleDeleteShopping)

	return mux
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting",
		log.FieldOperation, log.OpStartup,
		"addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down", log.FieldOperation, log.OpShutdown)
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userID identifies the requesting user. The tracker is single-household, so
// a missing header falls back to the default account.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "default"
}
