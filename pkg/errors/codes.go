package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a namespaced, string-typed failure identifier. The prefix before
// the underscore names the owning module (COMMON, SLA, CASE, WFL, EXP).
type ErrorCode string

// String returns the raw code value.
func (c ErrorCode) String() string {
	return string(c)
}

// ─────────────────────────────────────────────────────────────────────────────
// Common codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "COMMON_000"

	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeMessagingError     ErrorCode = "COMMON_015"
	ErrCodeStorageError       ErrorCode = "COMMON_016"
	ErrCodeSearchError        ErrorCode = "COMMON_017"
)

// Short aliases used by most call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeValidation   = ErrCodeValidation
)

// ─────────────────────────────────────────────────────────────────────────────
// SLA engine codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	// CodeMissingRequiredDate: a mandatory date field (submitted, received) is absent.
	CodeMissingRequiredDate ErrorCode = "SLA_001"
	// CodeInvalidDateOrder: a response/completion date precedes its issued/start date.
	CodeInvalidDateOrder ErrorCode = "SLA_002"
	// CodeUnknownEnumValue: priority or status outside the closed vocabulary.
	CodeUnknownEnumValue ErrorCode = "SLA_003"
)

// ─────────────────────────────────────────────────────────────────────────────
// Case / workflow / export codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	CodeCaseNotFound      ErrorCode = "CASE_001"
	CodeCaseAlreadyExists ErrorCode = "CASE_002"

	CodeStepNotFound    ErrorCode = "WFL_001"
	CodeProjectNotFound ErrorCode = "WFL_002"
	CodeTemplateInvalid ErrorCode = "WFL_003"
	CodeWorkflowExists  ErrorCode = "WFL_004"

	CodeExportFailed ErrorCode = "EXP_001"
)

// ErrorCodeHTTPStatus maps codes to the HTTP status the API layer responds with.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	CodeOK:                    http.StatusOK,
	CodeUnknown:               http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeSearchError:        http.StatusInternalServerError,

	CodeMissingRequiredDate: http.StatusUnprocessableEntity,
	CodeInvalidDateOrder:    http.StatusUnprocessableEntity,
	CodeUnknownEnumValue:    http.StatusUnprocessableEntity,

	CodeCaseNotFound:      http.StatusNotFound,
	CodeCaseAlreadyExists: http.StatusConflict,
	CodeStepNotFound:      http.StatusNotFound,
	CodeProjectNotFound:   http.StatusNotFound,
	CodeTemplateInvalid:   http.StatusUnprocessableEntity,
	CodeWorkflowExists:    http.StatusConflict,
	CodeExportFailed:      http.StatusInternalServerError,
}

// ErrorCodeMessage holds the default user-facing message per code.
var ErrorCodeMessage = map[ErrorCode]string{
	CodeOK:                    "success",
	CodeUnknown:               "unknown error",
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeMessagingError:     "messaging error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeSearchError:        "search index error",

	CodeMissingRequiredDate: "required date is missing",
	CodeInvalidDateOrder:    "dates are out of order",
	CodeUnknownEnumValue:    "value is outside the allowed vocabulary",

	CodeCaseNotFound:      "case not found",
	CodeCaseAlreadyExists: "case already exists",
	CodeStepNotFound:      "workflow step not found",
	CodeProjectNotFound:   "project not found",
	CodeTemplateInvalid:   "workflow template is invalid",
	CodeWorkflowExists:    "project workflow already instantiated",
	CodeExportFailed:      "export failed",
}

// HTTPStatusForCode returns the mapped HTTP status, or 500 for unmapped codes.
func HTTPStatusForCode(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message, or "unknown error".
func DefaultMessageForCode(code ErrorCode) string {
	if m, ok := ErrorCodeMessage[code]; ok {
		return m
	}
	return "unknown error"
}

// IsClientError reports whether the code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	s := HTTPStatusForCode(code)
	return s >= 400 && s < 500
}

// IsServerError reports whether the code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the lower-cased namespace prefix ("sla", "case", ...).
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	idx := strings.Index(s, "_")
	if idx <= 0 {
		return "unknown"
	}
	return strings.ToLower(s[:idx])
}

//Personal.AI order the ending
