package models

// Status is the lifecycle state shared by events and top-up transactions.
// WAITING is the only non-terminal state.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusApprove Status = "APPROVE"
	StatusDecline Status = "DECLINE"
)

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	return s == StatusApprove || s == StatusDecline
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusApprove, StatusDecline:
		return true
	}
	return false
}
