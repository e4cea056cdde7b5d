package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the unified API response format.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors,omitempty"`
}

// Kind classifies an application error into a closed taxonomy.
type Kind int

const (
	KindInvalidArgument    Kind = iota // malformed id, missing field, bad enum value
	KindUnauthenticated                // no/malformed/expired credential
	KindPrincipalGone                  // valid credential, user no longer exists
	KindForbidden                      // role or membership denied
	KindNotFound                       // target record absent
	KindConflict                       // duplicate membership, unique violation
	KindPreconditionFailed             // guard ordering violated, server bug
	KindInternal                       // unclassified failure
)

// HTTPStatus maps an error kind to its HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthenticated, KindPrincipalGone:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindPrincipalGone:
		return "principal_gone"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPreconditionFailed:
		return "precondition_failed"
	default:
		return "internal"
	}
}

// AppError is a structured application error carrying its kind.
type AppError struct {
	Kind    Kind
	Message string
	Errs    []string // optional field-level details
}

func (e *AppError) Error() string {
	return e.Message
}

// KindOf extracts the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Pre-defined error constructors

func NewInvalidArgument(msg string) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: msg}
}

func NewUnauthenticated(msg string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: msg}
}

func NewPrincipalGone(msg string) *AppError {
	return &AppError{Kind: KindPrincipalGone, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

func NewPreconditionFailed(msg string) *AppError {
	return &AppError{Kind: KindPreconditionFailed, Message: msg}
}

func NewInternal(msg string) *AppError {
	return &AppError{Kind: KindInternal, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		StatusCode: http.StatusOK,
		Data:       data,
		Message:    "ok",
		Success:    true,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{
		StatusCode: http.StatusCreated,
		Data:       data,
		Message:    "created",
		Success:    true,
	})
}

// Error sends an error response. If err is an *AppError, its kind decides the
// status; otherwise a generic 500 is returned and the original error text is
// never exposed to the client.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Kind.HTTPStatus(), Envelope{
			StatusCode: appErr.Kind.HTTPStatus(),
			Message:    appErr.Message,
			Success:    false,
			Errors:     appErr.Errs,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Envelope{
		StatusCode: http.StatusInternalServerError,
		Message:    "internal server error",
		Success:    false,
	})
}

// AbortError sends an error response and aborts the middleware chain.
func AbortError(c *gin.Context, err *AppError) {
	c.AbortWithStatusJSON(err.Kind.HTTPStatus(), Envelope{
		StatusCode: err.Kind.HTTPStatus(),
		Message:    err.Message,
		Success:    false,
		Errors:     err.Errs,
	})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	Error(c, NewInvalidArgument(msg))
}

func Unauthorized(c *gin.Context, msg string) {
	Error(c, NewUnauthenticated(msg))
}

func Forbidden(c *gin.Context, msg string) {
	Error(c, NewForbidden(msg))
}

func NotFound(c *gin.Context, msg string) {
	Error(c, NewNotFound(msg))
}

func Conflict(c *gin.Context, msg string) {
	Error(c, NewConflict(msg))
}

func ServerError(c *gin.Context, msg string) {
	Error(c, NewInternal(msg))
}
