package compat

const (
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeAPIKeyMissing = "API_KEY_MISSING"
	ErrorCodeParse         = "PARSE_ERROR"
	ErrorCodeInternal      = "INTERNAL_ERROR"
)
