package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldReceiptID     = "receipt_id"
	FieldStore         = "store"
	FieldPurchaseDate  = "purchase_date"
	FieldItemCount     = "item_count"
	FieldTotal         = "total"
	FieldProductName   = "product_name"
	FieldCanonicalName = "canonical_name"
	FieldProductID     = "product_id"
	FieldAttempt       = "attempt"
	FieldImageSize     = "image_size"
	FieldMimeType      = "mime_type"
	FieldSearchTerm    = "search_term"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentIngest     = "ingest"
	ComponentValidator  = "validator"
	ComponentNormalizer = "normalizer"
	ComponentHistory    = "history"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentGemini     = "gemini"
	ComponentCache      = "cache"
	ComponentShopping   = "shopping"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpUpload    = "upload"
	OpExtract   = "extract"
	OpValidate  = "validate"
	OpNormalize = "normalize"
	OpAggregate = "aggregate"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)
