package models

import (
	"errors"
	"strings"
	"time"
)

// Action is the kind of attendance event. The zero value is not a valid action.
type Action string

const (
	ActionUnknown Action = ""
	ActionSignIn  Action = "Sign In"
	ActionSignOut Action = "Sign Out"
)

// ErrInvalidAction is returned by ParseAction for anything other than sign in / sign out.
var ErrInvalidAction = errors.New("invalid attendance action")

// ParseAction normalises user input, case-insensitively, into an Action.
func ParseAction(s string) (Action, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	switch key {
	case "sign in", "signin":
		return ActionSignIn, nil
	case "sign out", "signout":
		return ActionSignOut, nil
	default:
		return ActionUnknown, ErrInvalidAction
	}
}

// Valid reports whether a is one of the two known actions.
func (a Action) Valid() bool {
	return a == ActionSignIn || a == ActionSignOut
}

// Attendance is one sign-in or sign-out event. Rows are never updated in place.
type Attendance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Action    Action    `gorm:"type:varchar(10);not null" json:"action"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	BrowserID string    `gorm:"size:64;index" json:"browser_id,omitempty"`
	ClientIP  string    `gorm:"size:45" json:"client_ip,omitempty"`
}
