package classroom

import "time"

// AdmissionEvent is the write-behind audit payload published after every
// admission attempt. Losing one never fails the admission itself.
type AdmissionEvent struct {
	ClassCode     string    `json:"class_code"`
	AttendeeEmail string    `json:"attendee_email"`
	Outcome       Outcome   `json:"outcome"`
	OccurredAt    time.Time `json:"occurred_at"`
}
