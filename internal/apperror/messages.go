package apperror

var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeMalformedBalance:    "Malformed encoded token balance",
	CodeMalformedFragmentID: "Malformed position fragment id",
	CodeUnknownTransaction:  "Unknown position transaction type",

	CodeSubgraphQueryFailed:   "Subgraph query failed",
	CodeSubgraphResponseError: "Subgraph returned errors",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",

	CodePriceSourceFailed: "Price source failed",
	CodeSinkWriteFailed:   "Failed to write results",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
