package cli

// Exit codes returned by the mwtext binary.
const (
	// ExitOK means the command completed successfully.
	ExitOK = 0

	// ExitError means the command failed (bad input path, bad config).
	ExitError = 1

	// ExitUsage means the command line itself was invalid.
	ExitUsage = 2
)
