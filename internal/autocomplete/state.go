package autocomplete

// State is the selector's position in its open/close lifecycle.
type State int

const (
	StateClosed State = iota
	StateOpenLoading
	StateOpenRemoteResults
	StateOpenLocalFallback
	// StateCommitted is transient: a selection was just written and the
	// selector re-enters StateClosed in the same step.
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpenLoading:
		return "open_loading"
	case StateOpenRemoteResults:
		return "open_remote_results"
	case StateOpenLocalFallback:
		return "open_local_fallback"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// IsOpen reports whether the candidate list is visible.
func (s State) IsOpen() bool {
	return s == StateOpenLoading || s == StateOpenRemoteResults || s == StateOpenLocalFallback
}

// Readiness describes the remote source as seen by one selector.
type Readiness int

const (
	// RemoteUnavailable means the source was never configured or failed to
	// initialise. It is not retried for the lifetime of the selector.
	RemoteUnavailable Readiness = iota
	RemoteReady
	// RemoteErrored means the last query failed; the next query tries again.
	RemoteErrored
)

func (r Readiness) String() string {
	switch r {
	case RemoteReady:
		return "ready"
	case RemoteErrored:
		return "errored"
	default:
		return "unavailable"
	}
}

// Origin names the source of a visible candidate list.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)
