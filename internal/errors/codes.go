package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents internal error codes for routing metadata operations
type ErrorCode int

const (
	// Success
	ErrCodeOK ErrorCode = 0

	// Resolution misses (non-fatal, row or replica entry is skipped)
	ErrCodeKeyspaceNotFound ErrorCode = 1000
	ErrCodeTableNotFound    ErrorCode = 1001
	ErrCodeHostNotFound     ErrorCode = 1002

	// Data anomalies
	ErrCodeDecodeFailed ErrorCode = 1100

	// Reload failures (non-fatal, previous snapshot retained)
	ErrCodeQueryFailed ErrorCode = 2000
	ErrCodeCacheClosed ErrorCode = 2001

	// Configuration
	ErrCodeInvalidConfig ErrorCode = 3000
)

// DriverError represents a structured error with code and context
type DriverError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *DriverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *DriverError) Unwrap() error {
	return e.Cause
}

// ToGRPCStatus converts DriverError to gRPC status
func (e *DriverError) ToGRPCStatus() *status.Status {
	return status.New(e.toGRPCCode(), e.Error())
}

// toGRPCCode maps internal error codes to gRPC codes
func (e *DriverError) toGRPCCode() codes.Code {
	switch e.Code {
	case ErrCodeOK:
		return codes.OK
	case ErrCodeKeyspaceNotFound, ErrCodeTableNotFound, ErrCodeHostNotFound:
		return codes.NotFound
	case ErrCodeDecodeFailed:
		return codes.DataLoss
	case ErrCodeQueryFailed:
		return codes.Unavailable
	case ErrCodeCacheClosed:
		return codes.FailedPrecondition
	case ErrCodeInvalidConfig:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// NewDriverError creates a new DriverError
func NewDriverError(code ErrorCode, message string, cause error) *DriverError {
	return &DriverError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *DriverError) WithDetail(key string, value interface{}) *DriverError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common errors

func KeyspaceNotFound(keyspace string) *DriverError {
	return NewDriverError(ErrCodeKeyspaceNotFound, fmt.Sprintf("keyspace not found in schema metadata: %s", keyspace), nil).
		WithDetail("keyspace", keyspace)
}

func TableNotFound(keyspace, table string) *DriverError {
	return NewDriverError(ErrCodeTableNotFound, fmt.Sprintf("table not found in schema metadata: %s.%s", keyspace, table), nil).
		WithDetail("keyspace", keyspace).
		WithDetail("table", table)
}

func HostNotFound(address string) *DriverError {
	return NewDriverError(ErrCodeHostNotFound, fmt.Sprintf("host not found in topology view: %s", address), nil).
		WithDetail("address", address)
}

func DecodeFailed(length int) *DriverError {
	return NewDriverError(ErrCodeDecodeFailed, fmt.Sprintf("malformed partition start key: %d bytes", length), nil).
		WithDetail("length", length)
}

func QueryFailed(message string, cause error) *DriverError {
	return NewDriverError(ErrCodeQueryFailed, message, cause)
}

func CacheClosed() *DriverError {
	return NewDriverError(ErrCodeCacheClosed, "routing cache is closed", nil)
}

func InvalidConfig(message string) *DriverError {
	return NewDriverError(ErrCodeInvalidConfig, message, nil)
}

// IsDriverError checks if an error is a DriverError
func IsDriverError(err error) bool {
	_, ok := err.(*DriverError)
	return ok
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if de, ok := err.(*DriverError); ok {
		return de.Code
	}
	return ErrCodeQueryFailed
}
