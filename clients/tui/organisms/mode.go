package organisms

// Mode represents the current interaction state.
type Mode int

const (
	ModeNormal    Mode = iota
	ModeWaiting        // a request is in flight
	ModePrompting      // picker or confirmation open
)
