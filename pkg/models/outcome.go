package models

// StatusSuccess is the status of a successful recognition
const StatusSuccess = "success"

// StructuredOutcome is the response shape of a recognition call.
// Exactly one of the success fields or Error is populated.
type StructuredOutcome struct {
	Status     string   `json:"status"`
	HallID     string   `json:"hall_id,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Schedule   string   `json:"schedule,omitempty"`
	Error      string   `json:"error,omitempty"`

	// Kind is the taxonomy tag of a failure; kept out of the wire format
	Kind string `json:"-"`
}

// IsSuccess reports whether the outcome is the success shape
func (o StructuredOutcome) IsSuccess() bool {
	return o.Status == StatusSuccess
}

// ValidationOutcome is the verdict of an intake gate
type ValidationOutcome struct {
	Accepted bool
	Kind     string
	Message  string
}

// Accepted returns an accepting verdict
func Accepted() ValidationOutcome {
	return ValidationOutcome{Accepted: true}
}

// Rejected returns a rejecting verdict of the given kind
func Rejected(kind, message string) ValidationOutcome {
	return ValidationOutcome{Kind: kind, Message: message}
}

// ErrorResponse is returned by non-recognition endpoints on failure
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
