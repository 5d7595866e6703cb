package model

import "time"

// Lore is a short public-contribution text snippet. Submissions always start
// unapproved; only an external moderation action flips IsApproved, and only
// approved entries are ever returned to readers.
type Lore struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
}
