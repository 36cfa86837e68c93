package exitcodes

// Exit codes for the MEMO launcher.
// These codes form the operational contract with desktop shortcuts,
// wrapper scripts and anyone parsing the launcher's exit status.
//
// When the application itself was started and exited non-zero, the
// launcher exits with the application's own code instead of one of
// these, so workload failures stay distinguishable from launcher
// failures.
const (
	Success         = 0 // Application ran and exited cleanly
	PrivilegeDenied = 2 // Administrator check failed, nothing was started
	PreflightFailed = 3 // A launch prerequisite was missing (file, env, interpreter, config)
	LaunchError     = 4 // The application could not be started, or supervision gave up
)
