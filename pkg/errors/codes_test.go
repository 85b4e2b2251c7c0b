package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
	assert.Equal(t, "SLA_002", CodeInvalidDateOrder.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeConflict, 409},
		{ErrCodeValidation, 422},
		{CodeMissingRequiredDate, 422},
		{CodeInvalidDateOrder, 422},
		{CodeUnknownEnumValue, 422},
		{CodeCaseNotFound, 404},
		{CodeStepNotFound, 404},
		{CodeWorkflowExists, 409},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code), tt.code)
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "required date is missing", DefaultMessageForCode(CodeMissingRequiredDate))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.True(t, IsClientError(CodeUnknownEnumValue))
	assert.False(t, IsClientError(ErrCodeInternal))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeDatabaseError))
	assert.False(t, IsServerError(CodeCaseNotFound))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "common", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "sla", ModuleForCode(CodeInvalidDateOrder))
	assert.Equal(t, "case", ModuleForCode(CodeCaseNotFound))
	assert.Equal(t, "wfl", ModuleForCode(CodeStepNotFound))
	assert.Equal(t, "unknown", ModuleForCode(ErrorCode("OK")))
}

func TestCodesAreMappedAndWellFormed(t *testing.T) {
	pattern := regexp.MustCompile(`^(OK|[A-Z]+_\d{3})$`)
	for code := range ErrorCodeHTTPStatus {
		assert.Regexp(t, pattern, string(code))
		_, ok := ErrorCodeMessage[code]
		assert.True(t, ok, "missing message for %s", code)
	}
}

//Personal.AI order the ending
