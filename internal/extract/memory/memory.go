// Package memory provides an in-process extraction backend for local
// development and tests: no network, deterministic output.
package memory

import (
	"context"
	"regexp"
	"strings"
	"sync"
)

const sampleResponse = `{
  "store_info": { "name": "Mercado Local", "date": "" },
  "items": [
    { "productName": "ARROZ TIPO 1 5KG", "quantity": 1, "unitPrice": 24.90, "total": 24.90 },
    { "productName": "LEITE INTEGRAL 1L", "quantity": 2, "unitPrice": 4.50, "total": 9.00 }
  ],
  "total": 33.90
}`

var packageSize = regexp.MustCompile(`\b\d+([.,]\d+)?\s*(kg|g|l|ml|un|m)\b`)

// Store is a canned extraction backend. Responses can be queued for tests;
// with nothing queued, AnalyzeReceipt returns a fixed sample receipt.
type Store struct {
	mu        sync.Mutex
	responses []string
}

func New() *Store {
	return &Store{}
}

// QueueResponse appends a canned AnalyzeReceipt response.
func (s *Store) QueueResponse(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, raw)
}

// AnalyzeReceipt pops the next queued response, or the fixed sample.
func (s *Store) AnalyzeReceipt(_ context.Context, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.responses) > 0 {
		next := s.responses[0]
		s.responses = s.responses[1:]
		return next, nil
	}
	return sampleResponse, nil
}

// NormalizeName lowercases the name and strips package-size tokens, a rough
// stand-in for what the language model does.
func (s *Store) NormalizeName(_ context.Context, productName string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(productName))
	name = packageSize.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " "), nil
}
