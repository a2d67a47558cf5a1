package models

import "time"

// Restriction mirrors the sign-in cooldown of one browser on the server so an
// admin can override it. A cooldown token issued at or before OverriddenAt is ignored.
type Restriction struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BrowserID    string     `gorm:"size:64;uniqueIndex;not null" json:"browser_id"`
	LastSigninAt time.Time  `gorm:"not null" json:"last_signin_at"`
	OverriddenAt *time.Time `json:"overridden_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Overrides reports whether a token issued at issuedAt has been cleared by an admin.
func (r Restriction) Overrides(issuedAt time.Time) bool {
	return r.OverriddenAt != nil && !issuedAt.After(*r.OverriddenAt)
}
