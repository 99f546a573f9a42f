package domain

// State tracks a sequence run: INIT → CHANNEL_CREATED | ABORTED → SENDING → DONE.
type State string

const (
	StateInit           State = "INIT"
	StateChannelCreated State = "CHANNEL_CREATED"
	StateAborted        State = "ABORTED"
	StateSending        State = "SENDING"
	StateDone           State = "DONE"
)

var transitions = map[State][]State{
	StateInit:           {StateChannelCreated, StateAborted},
	StateChannelCreated: {StateSending, StateDone},
	StateSending:        {StateSending, StateDone},
}

// CanTransition reports whether the sequence may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Submission records the outcome of posting one message.
type Submission struct {
	// Index is the 1-based position of the message in the run.
	Index int
	Kind  Kind
	Hash  string
	Err   error
}

// Outcome summarises a sequence run.
type Outcome struct {
	State       State
	ChannelID   string
	Address     string
	Submissions []Submission
}

// Failed counts submissions that returned an error.
func (o Outcome) Failed() int {
	n := 0
	for _, s := range o.Submissions {
		if s.Err != nil {
			n++
		}
	}
	return n
}
