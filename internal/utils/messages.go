package contextutils

// User-facing messages per error code. Transport failures read as transient;
// schema and validation failures advise changing the input, since they indicate
// a model-side formatting problem rather than a network one.
var userMessages = map[ErrorCode]string{
	ErrorCodeGenerationFailed:      "Text generation failed. Please try again.",
	ErrorCodeResponseInvalid:       "The model returned an unusable answer. Please try again with a different input.",
	ErrorCodeValidationFailed:      "The model returned an unusable answer. Please try again with a different input.",
	ErrorCodeProviderConfigInvalid: "The generation provider is not configured correctly.",
	ErrorCodeInvalidInput:          "Invalid input.",
	ErrorCodeStoreUnavailable:      "Saving is temporarily unavailable.",
	ErrorCodeRecordNotFound:        "Not found.",
	ErrorCodeServiceAtCapacity:     "Too many requests in flight. Please wait a moment.",
	ErrorCodeInternalError:         "An error occurred.",
}

// UserMessage returns a short user-facing message for the error.
func UserMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		if msg, ok := userMessages[appErr.Code]; ok {
			return msg
		}
	}
	return userMessages[ErrorCodeInternalError]
}
