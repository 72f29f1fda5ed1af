package form

// Status is the terminal state of one Submit call.
type Status string

const (
	// StatusIgnored: another submission was in flight, or the form was not
	// ready to submit.
	StatusIgnored     Status = "ignored"
	StatusInvalid     Status = "invalid"
	StatusRateLimited Status = "rate_limited"
	// StatusRejected covers honeypot hits. Its message is deliberately the
	// same generic text as a transport failure.
	StatusRejected    Status = "rejected"
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"
	StatusCanceled    Status = "canceled"
	StatusSucceeded   Status = "succeeded"
)

// Statuses lists every status, mainly for metrics pre-registration.
func Statuses() []Status {
	return []Status{
		StatusIgnored,
		StatusInvalid,
		StatusRateLimited,
		StatusRejected,
		StatusUnavailable,
		StatusFailed,
		StatusCanceled,
		StatusSucceeded,
	}
}

// Outcome is what a form orchestrator reports back to the view. Errors is
// only populated for StatusInvalid and WaitMinutes only for
// StatusRateLimited.
type Outcome struct {
	Status      Status
	Errors      Errors
	Message     string
	WaitMinutes int
}

// Succeeded reports whether the submission was delivered.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}
