package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidFormat      Code = "INVALID_FORMAT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Chain provider errors
const (
	CodeProviderUnavailable      Code = "PROVIDER_UNAVAILABLE"
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
)

// Wallet errors
const (
	CodeWalletNotConnected Code = "WALLET_NOT_CONNECTED"
	CodeWalletKeyInvalid   Code = "WALLET_KEY_INVALID"
	CodeWalletKeyMissing   Code = "WALLET_KEY_MISSING"
	CodeSigningFailed      Code = "SIGNING_FAILED"
)

// Counter contract errors
const (
	CodeContractCallFailed     Code = "CONTRACT_CALL_FAILED"
	CodeInvalidContractResult  Code = "INVALID_CONTRACT_RESULT"
	CodeSimulationFailed       Code = "SIMULATION_FAILED"
	CodeTransactionSubmitError Code = "TRANSACTION_SUBMIT_ERROR"
	CodeConfirmationFailed     Code = "CONFIRMATION_FAILED"
	CodeTransactionReverted    Code = "TRANSACTION_REVERTED"
	CodeTransactionInFlight    Code = "TRANSACTION_IN_FLIGHT"
)

// Circuit breaker errors
const (
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
