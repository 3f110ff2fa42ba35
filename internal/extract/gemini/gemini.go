// Package gemini implements the extraction ports against the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const analyzePrompt = `You are a data extraction agent for supermarket receipts. Analyze this receipt image and return a JSON object with the following shape:
{
  "store_info": { "name": string, "date": "YYYY-MM-DD" },
  "items": [ { "productName": string, "quantity": number, "unitPrice": number, "total": number } ],
  "total": number
}
Use a dot as the decimal separator. If a value cannot be read, omit it. Return only the JSON, with no additional explanation.`

const normalizePrompt = `Normalize the following product name by standardizing it to a searchable form, but ALWAYS preserve full brand names and product identifiers.
Remove package sizes and minor adjectives, but keep ALL brand names completely intact.
Return ONLY the normalized name, nothing else. Keep it clean but recognizable.

Examples:
"Leite integral Parmalat 1L" -> "leite parmalat"
"Arroz branco tipo 1 Tio João 5kg" -> "arroz tio joão"
"Coca Cola 2L" -> "coca cola"
"Café em pó Pilão torrado e moído 500g" -> "café pilão"

Now normalize this product name: `

// Client calls Gemini for both vision extraction and text normalization.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client with the given API key and model name.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: c, model: model}, nil
}

// AnalyzeReceipt sends the receipt image to the vision model and returns its
// raw text response. The caller owns retries; a single call here is one
// attempt.
func (c *Client) AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.4)
	model.SetTopP(0.8)
	model.SetTopK(40)
	model.SetMaxOutputTokens(8192)

	format := strings.TrimPrefix(mimeType, "image/")
	resp, err := model.GenerateContent(ctx, genai.Text(analyzePrompt), genai.ImageData(format, image))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	slog.DebugContext(ctx, "Receipt analysis complete",
		"model", c.model,
		"response_len", len(text))
	return text, nil
}

// NormalizeName asks the text model for the canonical form of a product name.
func (c *Client) NormalizeName(ctx context.Context, productName string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1)
	model.SetTopP(0.1)
	model.SetTopK(16)
	model.SetMaxOutputTokens(100)

	resp, err := model.GenerateContent(ctx, genai.Text(normalizePrompt+productName))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp), nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
