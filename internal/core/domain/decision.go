package domain

// ReasonTooClose is the rejection reason for the geofence rule.
const ReasonTooClose = "too close to last submission location"

// Decision is the outcome of validating a submission.
type Decision struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Accept returns an accepting decision.
func Accept() Decision { return Decision{Accepted: true} }

// Reject returns a rejecting decision with reason.
func Reject(reason string) Decision { return Decision{Reason: reason} }
