package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Monitor-specific error codes
const (
	// Market data provider errors
	CodeProviderFetchFailed  Code = "PROVIDER_FETCH_FAILED"
	CodeProviderRateLimited  Code = "PROVIDER_RATE_LIMITED"
	CodeTickerFetchFailed    Code = "TICKER_FETCH_FAILED"
	CodeOrderbookFetchFailed Code = "ORDERBOOK_FETCH_FAILED"
	CodeInvalidOrderbook     Code = "INVALID_ORDERBOOK"
	CodeNormalizationSkipped Code = "NORMALIZATION_SKIPPED"

	// Spread evaluation errors
	CodeSpreadCalculationError Code = "SPREAD_CALCULATION_ERROR"
	CodeInsufficientLiquidity  Code = "INSUFFICIENT_LIQUIDITY"

	// Alert delivery errors
	CodeDeliveryFailed   Code = "DELIVERY_FAILED"
	CodeDeliveryRejected Code = "DELIVERY_REJECTED"
	CodeDeliveryTimeout  Code = "DELIVERY_TIMEOUT"

	// Persistence errors
	CodePersistenceFailed  Code = "PERSISTENCE_FAILED"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"

	// Runtime configuration errors
	CodeConfigReloadFailed Code = "CONFIG_RELOAD_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
