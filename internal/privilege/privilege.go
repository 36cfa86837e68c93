// Package privilege answers one question: is this process running with
// administrator rights? On Windows it probes admin-only operations, with
// the process token as a fallback; elsewhere it reduces to an euid check.
package privilege

// The two instruction lines shown when the launch is refused for lack of
// administrator rights.
const (
	AbortLine1 = "This application requires administrator privileges."
	AbortLine2 = `Please right-click the launcher and select "Run as administrator".`
)

// AbortMessage returns the refusal text printed before the launcher exits.
func AbortMessage() string {
	return AbortLine1 + "\n" + AbortLine2 + "\n"
}

// Status is the overall verdict of the privilege check.
type Status struct {
	// Elevated reports whether administrator rights are effective now
	Elevated bool
	// Method names the probe that decided (net-session, raw-disk, token, euid)
	Method string
	// Detail carries extra context for diagnostics output
	Detail string
}

// ProbeResult is a single mechanism's verdict, used by diagnostics to show
// every probe individually.
type ProbeResult struct {
	Name     string
	Elevated bool
	Err      error
}

// Check runs the platform probes in order of reliability and returns the
// first conclusive verdict.
func Check() Status {
	for _, p := range Probes() {
		if p.Err == nil {
			return Status{Elevated: p.Elevated, Method: p.Name}
		}
	}
	return Status{Elevated: false, Method: "none", Detail: "all probes failed"}
}
