// Package errors provides structured error handling for scanbridge operations.
// It defines error codes, error types, and provides utilities for creating
// and classifying errors raised by the engine client, discovery and delivery.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"

	// Scan engine errors.
	CodeConnectionFailure  ErrorCode = "CONNECTION_FAILURE"
	CodeAuthFailure        ErrorCode = "AUTH_FAILURE"
	CodeMalformedResponse  ErrorCode = "MALFORMED_RESPONSE"
	CodeEngineError        ErrorCode = "ENGINE_ERROR"
	CodeNoScannerAvailable ErrorCode = "NO_SCANNER_AVAILABLE"
	CodeTargetCreation     ErrorCode = "TARGET_CREATION_FAILED"
	CodeTaskCreation       ErrorCode = "TASK_CREATION_FAILED"
	CodeTaskStart          ErrorCode = "TASK_START_FAILED"

	// Report errors.
	CodeNoReportID   ErrorCode = "NO_REPORT_ID"
	CodeReportFetch  ErrorCode = "REPORT_FETCH_FAILED"
	CodeEmptyReport  ErrorCode = "EMPTY_REPORT"
	CodeDecodeFailed ErrorCode = "DECODE_FAILED"

	// Discovery errors.
	CodeNoLiveHosts     ErrorCode = "NO_LIVE_HOSTS"
	CodeDiscoveryFailed ErrorCode = "DISCOVERY_FAILED"
	CodeTargetInvalid   ErrorCode = "TARGET_INVALID"

	// Delivery errors.
	CodeDeliveryFailed ErrorCode = "DELIVERY_FAILED"
	CodeStore          ErrorCode = "STORE"
)

// EngineError represents an error raised while talking to the scan engine or
// interpreting one of its responses.
type EngineError struct {
	Code      ErrorCode
	Message   string
	Operation string
	TaskID    string
	Cause     error
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Operation != "" {
		msg += fmt.Sprintf(" (operation: %s)", e.Operation)
	}
	if e.TaskID != "" {
		msg += fmt.Sprintf(" (task: %s)", e.TaskID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithTask attaches the task id the error relates to.
func (e *EngineError) WithTask(taskID string) *EngineError {
	e.TaskID = taskID
	return e
}

// NewEngineError creates a new engine error with the specified code and message.
func NewEngineError(code ErrorCode, operation, message string) *EngineError {
	return &EngineError{
		Code:      code,
		Message:   message,
		Operation: operation,
		Context:   make(map[string]interface{}),
	}
}

// WrapEngineError wraps an existing error as an engine error.
func WrapEngineError(code ErrorCode, operation, message string, err error) *EngineError {
	return &EngineError{
		Code:      code,
		Message:   message,
		Operation: operation,
		Cause:     err,
		Context:   make(map[string]interface{}),
	}
}

// DiscoveryError represents host discovery errors.
type DiscoveryError struct {
	Code    ErrorCode
	Message string
	Network string
	Pass    int
	Cause   error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Network != "" {
		msg += fmt.Sprintf(" (network: %s)", e.Network)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// NewDiscoveryError creates a new discovery error.
func NewDiscoveryError(code ErrorCode, network, message string) *DiscoveryError {
	return &DiscoveryError{
		Code:    code,
		Message: message,
		Network: network,
	}
}

// WrapDiscoveryError wraps an existing error as a discovery error.
func WrapDiscoveryError(code ErrorCode, network, message string, err error) *DiscoveryError {
	return &DiscoveryError{
		Code:    code,
		Message: message,
		Network: network,
		Cause:   err,
	}
}

// DeliveryError represents failures of report delivery or obligation storage.
type DeliveryError struct {
	Code      ErrorCode
	Message   string
	TaskID    string
	Recipient string
	Cause     error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.TaskID != "" {
		msg += fmt.Sprintf(" (task: %s)", e.TaskID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// WrapDeliveryError wraps an existing error as a delivery error.
func WrapDeliveryError(code ErrorCode, taskID, message string, err error) *DeliveryError {
	return &DeliveryError{
		Code:    code,
		Message: message,
		TaskID:  taskID,
		Cause:   err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field: %s)", e.Field)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// GetCode extracts the error code from the outermost structured error in the chain.
func GetCode(err error) ErrorCode {
	for err != nil {
		switch e := err.(type) {
		case *EngineError:
			return e.Code
		case *DiscoveryError:
			return e.Code
		case *DeliveryError:
			return e.Code
		case *ConfigError:
			return e.Code
		}
		err = errors.Unwrap(err)
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsNotFound reports whether err belongs to the not-found class: an unknown
// task, or a task without any report reference.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case CodeNotFound, CodeNoReportID:
		return true
	default:
		return false
	}
}

// HTTPStatus maps an error to the HTTP status code used by the API layer.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeValidation, CodeTargetInvalid:
		return http.StatusBadRequest
	case CodeNotFound, CodeNoReportID, CodeEmptyReport:
		return http.StatusNotFound
	case CodeNoLiveHosts:
		return http.StatusUnprocessableEntity
	case CodeConnectionFailure, CodeAuthFailure:
		return http.StatusBadGateway
	case CodeNoScannerAvailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error creation functions

// ErrInvalidTarget creates an error for invalid scan targets.
func ErrInvalidTarget(target string) *DiscoveryError {
	return NewDiscoveryError(CodeTargetInvalid, target, "invalid target specification")
}

// ErrNoLiveHosts creates an error for a network with no responding hosts.
func ErrNoLiveHosts(network string) *DiscoveryError {
	return NewDiscoveryError(CodeNoLiveHosts, network, "no live hosts found")
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "invalid configuration value", field, value)
}

// ErrConfigMissing creates an error for missing required configuration.
func ErrConfigMissing(field string) *ConfigError {
	return NewConfigFieldError(CodeConfiguration, "required configuration field missing", field, nil)
}
