package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Market data provider errors
	CodeProviderFetchFailed:  "Failed to fetch data from exchange",
	CodeProviderRateLimited:  "Exchange rate limit exceeded",
	CodeTickerFetchFailed:    "Failed to fetch ticker",
	CodeOrderbookFetchFailed: "Failed to fetch orderbook",
	CodeInvalidOrderbook:     "Invalid orderbook data",
	CodeNormalizationSkipped: "Payload skipped during normalization",

	// Spread evaluation errors
	CodeSpreadCalculationError: "Spread calculation error",
	CodeInsufficientLiquidity:  "Insufficient top-of-book liquidity",

	// Alert delivery errors
	CodeDeliveryFailed:   "Failed to deliver alert",
	CodeDeliveryRejected: "Alert delivery rejected by receiver",
	CodeDeliveryTimeout:  "Alert delivery timed out",

	// Persistence errors
	CodePersistenceFailed:  "Failed to persist record",
	CodeStorageUnavailable: "Storage backend unavailable",

	// Runtime configuration errors
	CodeConfigReloadFailed: "Failed to reload runtime configuration",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
