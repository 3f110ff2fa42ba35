package extract

import "context"

// Ports for the external language-model collaborators. Implementations live
// in subpackages; everything else in the app depends only on these.
type (
	// ReceiptAnalyzer turns a receipt photo into free-text candidate JSON.
	// The output is untrusted: it may be fenced, partial or malformed, and
	// only the receipt validator may assume anything about its shape.
	ReceiptAnalyzer interface {
		AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (string, error)
	}

	// NameNormalizer maps a raw product name to a canonical searchable form
	// (brands preserved, package sizes and filler adjectives stripped).
	// Callers must degrade to the original name when the call fails.
	NameNormalizer interface {
		NormalizeName(ctx context.Context, productName string) (string, error)
	}
)
