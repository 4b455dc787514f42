package status

// Status is the delivery lifecycle tag of an outgoing message. Incoming
// messages are created directly as Delivered. Transitions only ever move
// forward; Read is terminal.
type Status string

const (
	Sending   Status = "sending"
	Sent      Status = "sent"
	Delivered Status = "delivered"
	Read      Status = "read"
)

var ranks = map[Status]int{
	Sending:   0,
	Sent:      1,
	Delivered: 2,
	Read:      3,
}

// Valid reports whether s is a known delivery status.
func (s Status) Valid() bool {
	_, ok := ranks[s]
	return ok
}

// Rank returns the position of s in the lifecycle order, or -1 for an
// unknown status.
func (s Status) Rank() int {
	r, ok := ranks[s]
	if !ok {
		return -1
	}
	return r
}

// Before reports whether s comes strictly earlier in the lifecycle than
// other. Unknown statuses are never before anything.
func (s Status) Before(other Status) bool {
	sr, ok := ranks[s]
	if !ok {
		return false
	}
	or, ok := ranks[other]
	if !ok {
		return false
	}
	return sr < or
}

// Terminal reports whether s is the final lifecycle stage.
func (s Status) Terminal() bool {
	return s == Read
}
