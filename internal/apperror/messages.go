package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidFormat:      "Invalid data format",
	CodeInvalidState:       "Invalid state for this operation",
	CodeConfigurationError: "Configuration error",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	CodeProviderUnavailable:      "No Ethereum provider available",
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",

	CodeWalletNotConnected: "Connect wallet to update blockchain data",
	CodeWalletKeyInvalid:   "Wallet key could not be decoded",
	CodeWalletKeyMissing:   "No wallet key configured",
	CodeSigningFailed:      "Transaction signing failed",

	CodeContractCallFailed:     "Smart contract call failed",
	CodeInvalidContractResult:  "Smart contract returned an unexpected result",
	CodeSimulationFailed:       "Transaction simulation failed",
	CodeTransactionSubmitError: "Failed to submit transaction",
	CodeConfirmationFailed:     "Failed waiting for transaction confirmation",
	CodeTransactionReverted:    "Transaction reverted",
	CodeTransactionInFlight:    "A transaction is already in flight",

	CodeCircuitOpen: "Circuit breaker is open",
}

// Message returns the default message registered for code.
func Message(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return string(code)
}
