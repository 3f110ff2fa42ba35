// Package receipt turns the untrusted output of the vision extraction call
// into validated, arithmetically consistent line items. Nothing upstream of
// this package is allowed to assume the extraction contract holds.
package receipt

import (
	"encoding/json"
	"strings"

	"notinha/internal/core"
)

// Candidate is the tolerant decode of one extraction response. Numeric fields
// accept JSON numbers or decorated strings; absence and garbage are recorded,
// not fatal.
type Candidate struct {
	StoreInfo    *StoreInfo      `json:"store_info"`
	Items        []CandidateItem `json:"items"`
	PurchaseDate string          `json:"purchase_date"`
	Total        FlexAmount      `json:"total"`
}

// StoreInfo is the store block of an extraction response.
type StoreInfo struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// CandidateItem is one unvalidated line item.
type CandidateItem struct {
	ProductName string     `json:"productName"`
	Quantity    FlexAmount `json:"quantity"`
	UnitPrice   FlexAmount `json:"unitPrice"`
	Total       FlexAmount `json:"total"`
}

// FlexAmount decodes a JSON number or a string carrying currency decoration
// ("R$ 10.00"). It records whether the field was present and whether it could
// be read; decoding never fails the surrounding unmarshal.
type FlexAmount struct {
	Value   float64
	Present bool
	Valid   bool
}

func (f *FlexAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	f.Present = true

	if len(s) > 0 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		v, err := core.ParseAmount(str)
		if err != nil {
			return nil
		}
		f.Value = v
		f.Valid = true
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err != nil || num < 0 {
		return nil
	}
	f.Value = num
	f.Valid = true
	return nil
}

// ParseCandidate decodes the raw extraction text into a Candidate. Markdown
// code fences are stripped first; anything that does not decode to an object
// with a store_info block and an items array is core.ErrInvalidFormat.
func ParseCandidate(raw string) (Candidate, error) {
	var c Candidate

	cleaned := stripFences(raw)
	if cleaned == "" {
		return c, core.ErrInvalidFormat
	}

	// items must be a JSON array; decoding an object or scalar into the
	// slice fails, which is exactly the structural check the contract wants.
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return Candidate{}, core.ErrInvalidFormat
	}
	if c.StoreInfo == nil || c.Items == nil {
		return Candidate{}, core.ErrInvalidFormat
	}

	return c, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, leaving the inner payload.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the language tag line ("json") if present.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "json" || first == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
