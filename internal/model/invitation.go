package model

import "time"

// Invitation is a pending direct challenge.
type Invitation struct {
	ID         string     `json:"invitationId"`
	From       PlayerRef  `json:"from"`
	To         PlayerRef  `json:"to"`
	Difficulty Difficulty `json:"difficulty"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}
