package bridge

// State is the stage of the ingestion cycle in progress.
type State int32

// States of a cycle. There is no terminal state.
const (
	WaitingForRecord State = iota
	Decoding
	Normalizing
	Encoding
	Dispatching
)

var stateNames = [...]string{
	WaitingForRecord: "WaitingForRecord",
	Decoding:         "Decoding",
	Normalizing:      "Normalizing",
	Encoding:         "Encoding",
	Dispatching:      "Dispatching",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}
