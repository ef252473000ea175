package shelf

// Status is the tag of a ResolutionState.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ResolutionState is the per-row resolution result. Playlist is set only
// when Ready, Err only when Error. Version is the fetch generation that
// produced the state.
type ResolutionState struct {
	Status   Status
	Playlist *Playlist
	Err      error
	Version  uint64
}

func loading(version uint64) ResolutionState {
	return ResolutionState{Status: StatusLoading, Version: version}
}

func ready(version uint64, playlist *Playlist) ResolutionState {
	return ResolutionState{Status: StatusReady, Playlist: playlist, Version: version}
}

func failed(version uint64, err error) ResolutionState {
	return ResolutionState{Status: StatusError, Err: err, Version: version}
}

// Settled reports whether the state is terminal for its version.
func (s ResolutionState) Settled() bool {
	return s.Status != StatusLoading
}
