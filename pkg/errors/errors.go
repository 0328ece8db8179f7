package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure so the transport layer can map it to a
// distinct code and the caller can decide between retry and abort.
type Kind string

const (
	KindInternal         Kind = "internal"
	KindIngestion        Kind = "ingestion"
	KindEmbeddingService Kind = "embedding_service"
	KindContextOverflow  Kind = "context_overflow"
	KindSessionExpired   Kind = "session_expired"
	KindTurnInFlight     Kind = "turn_in_flight"
	KindLLMTimeout       Kind = "llm_timeout"
	KindLLMQuotaExceeded Kind = "llm_quota_exceeded"
	KindLLMRejected      Kind = "llm_rejected"
	KindQuizGeneration   Kind = "quiz_generation"
	KindTenantIsolation  Kind = "tenant_isolation"
)

type CustomizedError struct {
	cause   error
	message string
	trace   []string
	wrap    error
	code    int
	kind    Kind
	data    map[string]interface{}
}

func New(trace, message string, err error) *CustomizedError {
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		code:    http.StatusInternalServerError,
		kind:    KindInternal,
	}
}

func (e *CustomizedError) Code(c int) *CustomizedError {
	e.code = c
	return e
}

func (e *CustomizedError) GetCode() int {
	return e.code
}

func (e *CustomizedError) Kind(k Kind) *CustomizedError {
	e.kind = k
	return e
}

func (e *CustomizedError) GetKind() Kind {
	return e.kind
}

// WithData attaches a payload to the error, e.g. the valid questions
// of a partially successful quiz generation.
func (e *CustomizedError) WithData(data map[string]interface{}) *CustomizedError {
	e.data = data
	return e
}

func (e *CustomizedError) GetData() map[string]interface{} {
	return e.data
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

func Wrap(err error, trace, message string) *CustomizedError {
	ce := &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		wrap:    err,
		code:    http.StatusInternalServerError,
		kind:    KindInternal,
	}
	var income *CustomizedError
	if errors.As(err, &income) {
		ce.code = income.code
		ce.kind = income.kind
	}
	return ce
}

func Trace(trace string, err error) *CustomizedError {
	var ce *CustomizedError
	if errors.As(err, &ce) {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return Wrap(err, trace, err.Error())
}

// KindOf extracts the kind, KindInternal for plain errors.
func KindOf(err error) Kind {
	var ce *CustomizedError
	if errors.As(err, &ce) {
		return ce.kind
	}
	return KindInternal
}

// CodeOf extracts the HTTP code, 500 for plain errors.
func CodeOf(err error) int {
	var ce *CustomizedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return http.StatusInternalServerError
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var ce *CustomizedError
	if errors.As(err, &ce) {
		return ce.kind == kind
	}
	return false
}

func (e *CustomizedError) Message() string {
	if e.message == "" {
		return e.cause.Error()
	}
	return e.message
}

func (e *CustomizedError) Unwrap() error {
	return e.wrap
}

func (e *CustomizedError) Error() string {
	otherDetails := `""`
	if ce, ok := e.wrap.(*CustomizedError); ok {
		otherDetails = ce.Error()
	} else if e.wrap != nil {
		otherDetails = fmt.Sprint("\"", e.wrap.Error(), "\"")
	}
	return fmt.Sprintf(`{"trace":"%s","code":%d,"kind":"%s","msg":"%s","error":"%v","wrapd":%s}`, strings.Join(e.trace, "->"), e.code, e.kind, e.message, e.cause, otherDetails)
}
