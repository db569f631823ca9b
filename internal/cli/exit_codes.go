package cli

// Exit codes for the draftspec CLI. Supports programmatic composition and
// CI/CD integration, the same taxonomy shape as the teacher's cli package.
const (
	// ExitSuccess indicates every spec passed.
	ExitSuccess = 0

	// ExitSpecFailures indicates the run completed but at least one spec failed.
	ExitSpecFailures = 1

	// ExitInvalidArguments indicates invalid command arguments or flags.
	ExitInvalidArguments = 3

	// ExitConfigError indicates a configuration file failed to load or validate.
	ExitConfigError = 4

	// ExitRunError indicates the runner itself aborted (compile failure,
	// cancellation, lock contention) before producing a usable report.
	ExitRunError = 5
)
