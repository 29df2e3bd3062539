package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Pricing and matching error codes
const (
	// ErrCodeEmptyRateCard is returned when a draft is parsed against a rate card with no active items
	ErrCodeEmptyRateCard = "ERR_EMPTY_RATE_CARD"
	// ErrCodeUnresolvedItems is returned when confirmation requires every item to be matched
	ErrCodeUnresolvedItems = "ERR_UNRESOLVED_ITEMS"
	// ErrCodeNoPricedItems is returned when a draft has no matched line to invoice
	ErrCodeNoPricedItems = "ERR_NO_PRICED_ITEMS"
	// ErrCodeInvalidStrategy is returned for an unregistered match strategy name
	ErrCodeInvalidStrategy = "ERR_INVALID_STRATEGY"
	// ErrCodeRateItemInactive is returned when revising a deactivated rate item
	ErrCodeRateItemInactive = "ERR_RATE_ITEM_INACTIVE"
	// ErrCodeInvalidTaxRate is returned for tax rates outside [0, 1)
	ErrCodeInvalidTaxRate = "ERR_INVALID_TAX_RATE"
)

// Draft and invoice lifecycle error codes
const (
	ErrCodeInvalidState         = "ERR_INVALID_STATE"
	ErrCodeInvalidTransition    = "ERR_INVALID_TRANSITION"
	ErrCodeDraftFrozen          = "ERR_DRAFT_FROZEN"
	ErrCodeOverpayment          = "ERR_OVERPAYMENT"
	ErrCodeIdempotencyKeyReused = "ERR_IDEMPOTENCY_KEY_REUSED"
	ErrCodeBusinessRule         = "ERR_BUSINESS_RULE"
)

// Upstream dependency error codes
const (
	// ErrCodeExtractionFailed is returned when the extractor answered with an unusable payload
	ErrCodeExtractionFailed = "ERR_EXTRACTION_FAILED"
	// ErrCodeExtractionUnavailable is returned when no extractor is configured
	ErrCodeExtractionUnavailable = "ERR_EXTRACTION_UNAVAILABLE"
	ErrCodeExportUnavailable     = "ERR_EXPORT_UNAVAILABLE"
	ErrCodeArchiveUnavailable    = "ERR_ARCHIVE_UNAVAILABLE"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Pricing errors
	ErrCodeEmptyRateCard:    http.StatusUnprocessableEntity,
	ErrCodeUnresolvedItems:  http.StatusUnprocessableEntity,
	ErrCodeNoPricedItems:    http.StatusUnprocessableEntity,
	ErrCodeInvalidStrategy:  http.StatusBadRequest,
	ErrCodeRateItemInactive: http.StatusUnprocessableEntity,
	ErrCodeInvalidTaxRate:   http.StatusBadRequest,

	// Lifecycle errors
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition:    http.StatusConflict,
	ErrCodeDraftFrozen:          http.StatusConflict,
	ErrCodeOverpayment:          http.StatusUnprocessableEntity,
	ErrCodeIdempotencyKeyReused: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,

	// Upstream errors
	ErrCodeExtractionFailed:      http.StatusBadGateway,
	ErrCodeExtractionUnavailable: http.StatusServiceUnavailable,
	ErrCodeExportUnavailable:     http.StatusServiceUnavailable,
	ErrCodeArchiveUnavailable:    http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"UNAUTHORIZED":           ErrCodeUnauthorized,
	"FORBIDDEN":              ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
	"EMPTY_RATE_CARD":        ErrCodeEmptyRateCard,
	"UNRESOLVED_ITEMS":       ErrCodeUnresolvedItems,
	"NO_PRICED_ITEMS":        ErrCodeNoPricedItems,
	"INVALID_STRATEGY":       ErrCodeInvalidStrategy,
	"RATE_ITEM_INACTIVE":     ErrCodeRateItemInactive,
	"INVALID_TAX_RATE":       ErrCodeInvalidTaxRate,
	"INVALID_TRANSITION":     ErrCodeInvalidTransition,
	"DRAFT_FROZEN":           ErrCodeDraftFrozen,
	"OVERPAYMENT":            ErrCodeOverpayment,
	"IDEMPOTENCY_KEY_REUSED": ErrCodeIdempotencyKeyReused,
	"EXTRACTION_FAILED":      ErrCodeExtractionFailed,
	"EXTRACTION_UNAVAILABLE": ErrCodeExtractionUnavailable,
	"EXPORT_UNAVAILABLE":     ErrCodeExportUnavailable,
	"ARCHIVE_UNAVAILABLE":    ErrCodeArchiveUnavailable,

	// Field level domain validation collapses to a format error
	"INVALID_NAME":          ErrCodeValidationFormat,
	"INVALID_PRICE":         ErrCodeValidationFormat,
	"INVALID_UNIT":          ErrCodeValidationFormat,
	"INVALID_CATEGORY":      ErrCodeValidationFormat,
	"INVALID_ALIAS":         ErrCodeValidationFormat,
	"INVALID_EMAIL":         ErrCodeValidationFormat,
	"INVALID_PAYMENT_TERMS": ErrCodeValidationFormat,
	"INVALID_CURRENCY":      ErrCodeValidationFormat,
	"INVALID_OWNER":         ErrCodeValidationFormat,
	"INVALID_DRAFT":         ErrCodeValidationFormat,
	"INVALID_CLIENT":        ErrCodeValidationFormat,
	"INVALID_AMOUNT":        ErrCodeValidationRange,
	"INVALID_QUANTITY":      ErrCodeValidationRange,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
