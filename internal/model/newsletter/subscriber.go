package newsletter

import "time"

// Subscriber is one newsletter signup. Email is unique.
type Subscriber struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
