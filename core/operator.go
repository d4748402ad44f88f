package core

import "time"

type (
	// Operator is a fulfillment/POS user signed in to the protected surface
	// that lists print files for an order.
	Operator struct {
		Subject   string    `json:"subject"`
		Login     string    `json:"login"`
		Email     string    `json:"email"`
		AvatarURL string    `json:"avatarUrl"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"createdAt"`
	}
)
