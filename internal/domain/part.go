package domain

import "time"

// PartStatus tracks a required part.
type PartStatus string

const (
	PartStatusPending  PartStatus = "PENDING"
	PartStatusOrdered  PartStatus = "ORDERED"
	PartStatusReceived PartStatus = "RECEIVED"
)

// PartRequirement is one part needed to finish the job.
type PartRequirement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	PartNumber  *string    `json:"part_number,omitempty"`
	Quantity    int        `json:"quantity"`
	Status      PartStatus `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
}

// Outstanding reports whether the part has not arrived yet.
func (p PartRequirement) Outstanding() bool {
	return p.Status != PartStatusReceived
}
