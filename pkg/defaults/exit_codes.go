package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Clean exit
	ExitScanErrors    = 1 // Scan completed but some probes failed or timed out
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitInternalError = 4 // Unexpected internal error
)
