package apperror

// Code identifies a class of failure.
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Position data
const (
	CodeMalformedBalance    Code = "MALFORMED_BALANCE"
	CodeMalformedFragmentID Code = "MALFORMED_FRAGMENT_ID"
	CodeUnknownTransaction  Code = "UNKNOWN_TRANSACTION_TYPE"
)

// Subgraph
const (
	CodeSubgraphQueryFailed   Code = "SUBGRAPH_QUERY_FAILED"
	CodeSubgraphResponseError Code = "SUBGRAPH_RESPONSE_ERROR"
)

// Ethereum
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
)

// Pricing and output
const (
	CodePriceSourceFailed Code = "PRICE_SOURCE_FAILED"
	CodeSinkWriteFailed   Code = "SINK_WRITE_FAILED"
)

// Circuit breaker
const (
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
