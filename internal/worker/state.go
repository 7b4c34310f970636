package worker

// State is where a loop currently is in its poll/handle/publish cycle.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StateHandling
	StatePublishing
	StateAdvancing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateHandling:
		return "handling"
	case StatePublishing:
		return "publishing"
	case StateAdvancing:
		return "advancing"
	default:
		return "unknown"
	}
}
