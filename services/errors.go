package services

import "errors"

var (
	ErrRecordNotFound      = errors.New("attendance record not found")
	ErrNoRecordsSelected   = errors.New("no records selected")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidName         = errors.New("name must be between 1 and 100 characters")
	ErrRestrictionNotFound = errors.New("no restriction for browser id")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSessionInvalid      = errors.New("admin session is invalid or expired")
	ErrMalformedToken      = errors.New("malformed cooldown token")
)
