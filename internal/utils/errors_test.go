package contextutils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrorCodeInvalidInput, SeverityWarn, "bad value", "field theme")
	assert.Equal(t, "INVALID_INPUT: bad value - field theme", err.Error())

	noDetails := NewAppError(ErrorCodeInvalidInput, SeverityWarn, "bad value", "")
	assert.Equal(t, "INVALID_INPUT: bad value", noDetails.Error())
}

func TestWrapError_PreservesCode(t *testing.T) {
	wrapped := WrapError(ErrResponseInvalid, "quiz parsing")
	assert.Equal(t, ErrorCodeResponseInvalid, GetErrorCode(wrapped))
	assert.Equal(t, SeverityWarn, GetErrorSeverity(wrapped))
	assert.True(t, IsError(wrapped, ErrResponseInvalid))
	assert.False(t, IsError(wrapped, ErrGenerationFailed))
}

func TestWrapError_PlainError(t *testing.T) {
	wrapped := WrapError(errors.New("boom"), "something broke")
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(wrapped))
	assert.Contains(t, wrapped.Error(), "something broke")
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestWrapErrorf_Formatting(t *testing.T) {
	wrapped := WrapErrorf(ErrValidationFailed, "question %d invalid", 3)
	assert.Equal(t, ErrorCodeValidationFailed, GetErrorCode(wrapped))
	assert.Contains(t, wrapped.Error(), "question 3 invalid")
}

func TestWrapError_NilPassthrough(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))
	assert.NoError(t, WrapErrorf(nil, "context %d", 1))
}

func TestAppError_Unwrap(t *testing.T) {
	wrapped := WrapError(ErrStoreUnavailable, "open failed")
	var appErr *AppError
	require.True(t, AsError(wrapped, &appErr))
	assert.Equal(t, ErrorCodeStoreUnavailable, appErr.Code)
	assert.NotNil(t, appErr.Unwrap())
}

func TestUserMessage(t *testing.T) {
	// Schema and invariant failures carry the same user-facing advice.
	assert.Equal(t, UserMessage(ErrResponseInvalid), UserMessage(ErrValidationFailed))
	assert.Contains(t, UserMessage(ErrResponseInvalid), "different input")

	assert.Contains(t, UserMessage(ErrGenerationFailed), "try again")
	assert.NotContains(t, UserMessage(ErrGenerationFailed), "different input")

	// Unknown errors fall back to the generic message.
	assert.Equal(t, userMessages[ErrorCodeInternalError], UserMessage(errors.New("raw")))
}

func TestToJSON(t *testing.T) {
	err := WrapError(ErrRecordNotFound, "no list")
	var appErr *AppError
	require.True(t, AsError(err, &appErr))

	out := appErr.ToJSON()
	assert.Equal(t, "RECORD_NOT_FOUND", out["code"])
	assert.Equal(t, "Not found.", out["message"])
	assert.Equal(t, "info", out["severity"])
}
