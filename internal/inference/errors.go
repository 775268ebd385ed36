package inference

import "fmt"

// Error describes a failed inference call. Hint, when set, tells the
// operator what to fix.
type Error struct {
	StatusCode int
	Message    string
	Hint       string
}

func (e *Error) Error() string {
	msg := "inference: " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("inference (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func hintFor(status int) string {
	switch status {
	case 401, 403:
		return "check the API key"
	case 429:
		return "rate limited, retry later"
	case 529:
		return "API overloaded, retry later"
	default:
		return ""
	}
}
