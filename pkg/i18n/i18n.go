package i18n

// User facing error messages. Handlers return these verbatim, the
// trace chain inside pkg/errors carries the technical detail.
const (
	ERROR_INTERNAL          = "Internal service error, please try again later"
	ERROR_NOT_FOUND         = "Resource not found"
	ERROR_PERMISSION_DENIED = "Permission denied"
	ERROR_INVALID_ARGUMENT  = "Invalid request argument"
	ERROR_FORBIDDEN         = "Operation not allowed"
	ERROR_EXIST             = "Resource already exists"
	ERROR_TOO_MANY_REQUESTS = "Too many requests, slow down"

	ERROR_INGESTION_REJECTED = "Document rejected, content is empty or not text"
	ERROR_DOCUMENT_BUSY      = "Document is being processed, please retry shortly"
	ERROR_NO_COURSE_MATERIAL = "No ready course material to work with"
	ERROR_EMBEDDING_UPSTREAM = "Embedding service is unavailable, document left unchanged"
	ERROR_CONTEXT_OVERFLOW   = "Your message is too long for the current context window, please shorten it"
	ERROR_SESSION_EXPIRED    = "This session has expired, please start a new one"
	ERROR_TURN_IN_FLIGHT     = "A reply is already being generated for this session"
	ERROR_DIMENSION_MISMATCH = "Embedding dimension does not match the configured index"
	ERROR_QUIZ_GENERATION    = "Could not generate the full quiz, partial results attached"
	ERROR_TENANT_ISOLATION   = "Tenant isolation violation"
	ERROR_LLM_TIMEOUT        = "The assistant took too long to reply, please try again"
	ERROR_LLM_QUOTA_EXCEEDED = "AI quota exhausted, please contact support"
	ERROR_LLM_REJECTED       = "The AI provider rejected this request"
)
