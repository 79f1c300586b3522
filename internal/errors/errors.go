package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType classifies application errors into the kinds the service
// distinguishes when deciding how to log and surface them.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeFutureTime   ErrorType = "future_timestamp"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInvalidType  ErrorType = "invalid_type"
	ErrorTypeInvalidRange ErrorType = "invalid_range"
	ErrorTypeUpstream     ErrorType = "upstream"
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Message  string
	Code     string
	Internal error
	Context  map[string]interface{}
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  source,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   source,
		Context:  make(map[string]interface{}),
	}
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle processes an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		h.handleAppError(ctx, appErr)
	} else {
		h.handleGenericError(ctx, err)
	}
}

// handleAppError handles AppError instances
func (h *Handler) handleAppError(ctx context.Context, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation, ErrorTypeFutureTime, ErrorTypeInvalidRange, ErrorTypeInvalidType:
		h.logger.WarnContext(ctx, "Rejected input", err.LogFields()...)
	case ErrorTypeNotFound, ErrorTypeForbidden:
		h.logger.WarnContext(ctx, "Denied request", err.LogFields()...)
	case ErrorTypeDatabase, ErrorTypeUpstream, ErrorTypeInternal:
		h.logger.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

// handleGenericError handles generic errors
func (h *Handler) handleGenericError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

// LogAndReturn logs an error and returns it
func (h *Handler) LogAndReturn(ctx context.Context, err error) error {
	h.Handle(ctx, err)
	return err
}

// Predefined errors. Is() matches on type and code, so these double as
// targets for errors.Is checks across the service layer.
var (
	ErrInvalidCarbohydrate     = New(ErrorTypeValidation, "INVALID_CARBOHYDRATE", "Carbohydrate grams must be between 0 and 300")
	ErrInvalidInsulinDose      = New(ErrorTypeValidation, "INVALID_INSULIN_DOSE", "Insulin dose must be between 0 and 100 units in 0.5 unit steps")
	ErrInvalidExerciseDuration = New(ErrorTypeValidation, "INVALID_EXERCISE_DURATION", "Exercise duration must be between 1 and 300 minutes")
	ErrInvalidNoteText         = New(ErrorTypeValidation, "INVALID_NOTE_TEXT", "Note text must be 1 to 500 characters after trimming")
	ErrInvalidAnnotation       = New(ErrorTypeValidation, "INVALID_ANNOTATION", "Annotation must be at most 200 characters after trimming")
	ErrInvalidTirRange         = New(ErrorTypeValidation, "INVALID_TIR_RANGE", "Target range bounds must be within 0 to 1000 with lower below upper")
	ErrInvalidUserID           = New(ErrorTypeValidation, "INVALID_USER_ID", "User id must not be empty")
	ErrInvalidMealTag          = New(ErrorTypeValidation, "INVALID_MEAL_TAG", "Meal tag id must be positive")
	ErrInvalidExerciseType     = New(ErrorTypeValidation, "INVALID_EXERCISE_TYPE", "Exercise type id must be positive")
	ErrInvalidEnum             = New(ErrorTypeValidation, "INVALID_ENUM", "Unknown enumeration value")
	ErrEventTimeInFuture       = New(ErrorTypeFutureTime, "EVENT_TIME_IN_FUTURE", "Event time must not be in the future")
	ErrEventNotFound           = New(ErrorTypeNotFound, "EVENT_NOT_FOUND", "Event not found")
	ErrForbidden               = New(ErrorTypeForbidden, "FORBIDDEN", "Caller does not own this resource")
	ErrEventInvalidType        = New(ErrorTypeInvalidType, "EVENT_INVALID_TYPE", "Operation requires a different event type")
	ErrInvalidRange            = New(ErrorTypeInvalidRange, "INVALID_RANGE", "Unsupported chart range")
	ErrDatabaseError           = New(ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
	ErrUpstream                = New(ErrorTypeUpstream, "UPSTREAM", "Glucose source request failed")
	ErrInternalServer          = New(ErrorTypeInternal, "INTERNAL", "Internal error")
)

// Convenience functions for common errors
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, "VALIDATION", message)
}

func NewDatabaseError(err error) *AppError {
	return Wrap(err, ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
}

// NewUpstreamError preserves the upstream source's message verbatim so the
// caller sees exactly what the source reported.
func NewUpstreamError(err error, source string) *AppError {
	return Wrap(err, ErrorTypeUpstream, "UPSTREAM", err.Error()).
		WithContext("upstream", source)
}

func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "INTERNAL", "Internal error")
}
