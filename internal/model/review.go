package model

import "time"

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review is a customer testimonial.  New reviews wait in pending until an
// admin approves or rejects them; only approved ones are public.
type Review struct {
	ID          uint64       `json:"id"`
	UserID      uint64       `json:"user_id"`
	Author      string       `json:"author"`
	Rating      int          `json:"rating"`
	Text        string       `json:"text"`
	EventType   string       `json:"event_type,omitempty"`
	Status      ReviewStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ModeratedAt *time.Time   `json:"moderated_at,omitempty"`
}
