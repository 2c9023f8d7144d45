package push

// State is the push channel's connection state
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Authorized
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}
