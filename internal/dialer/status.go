package dialer

// CallStatus is the proxy's reported call state. The value is treated as an
// opaque string with four recognized states; anything else ranks as unknown
// and is ignored by consumers.
type CallStatus string

const (
	StatusQueued     CallStatus = "queued"
	StatusRinging    CallStatus = "ringing"
	StatusInProgress CallStatus = "in-progress"
	StatusCompleted  CallStatus = "completed"
)

// Rank orders statuses for monotonicity checks:
// queued < ringing < in-progress < completed. Unknown statuses rank 0.
func (s CallStatus) Rank() int {
	switch s {
	case StatusQueued:
		return 1
	case StatusRinging:
		return 2
	case StatusInProgress:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 0
	}
}

// Terminal reports whether no further status movement is possible.
func (s CallStatus) Terminal() bool { return s == StatusCompleted }
