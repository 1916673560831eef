package models

// Status classifies the terminal result of checking one article.
type Status int

const (
	// StatusFound means the server acknowledged the article with 223.
	StatusFound Status = iota
	// StatusMissing means the server answered the STAT with any other code.
	StatusMissing
	// StatusError means the check was inconclusive: the session timed out,
	// the transport failed, or a response broke the protocol contract.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusMissing:
		return "missing"
	default:
		return "error"
	}
}

// Outcome is the terminal result of one article check. Exactly one Outcome is
// produced per unique message ID, on every path including failures.
type Outcome struct {
	MessageID string
	Status    Status
	// Err records why an inconclusive check failed. Diagnostic only; the
	// summary never distinguishes error causes.
	Err error
}

// Summary aggregates the outcomes of a completed check run.
type Summary struct {
	Total      int      `json:"total"`
	Found      int      `json:"found"`
	Missing    int      `json:"missing"`
	Errors     int      `json:"errors"`
	MissingIDs []string `json:"missingIds,omitempty"`
}

// CompletionRate returns the found percentage, 0 for an empty run.
func (s Summary) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Found) / float64(s.Total) * 100
}
