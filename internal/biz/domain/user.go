package domain

import (
	"net/mail"
	"strings"
	"time"
)

// RegistrationState is the state of a user in the activation flow
type RegistrationState string

const (
	StateBasic          RegistrationState = "BASIC"
	StateWaitForEmail   RegistrationState = "WAIT_FOR_EMAIL"
	StateEmailConfirmed RegistrationState = "EMAIL_CONFIRMED"
)

// Valid reports whether s is a known state
func (s RegistrationState) Valid() bool {
	switch s {
	case StateBasic, StateWaitForEmail, StateEmailConfirmed:
		return true
	}
	return false
}

// User represents a chat user known to the bot
type User struct {
	ID             int64
	PlatformUserID string
	UserName       string
	Email          string // empty when not yet submitted
	State          RegistrationState
	Active         bool
	FirstSeenAt    time.Time
}

// NewUser creates a user for a platform id seen for the first time
func NewUser(platformUserID, userName string) *User {
	return &User{
		PlatformUserID: platformUserID,
		UserName:       userName,
		State:          StateBasic,
		FirstSeenAt:    time.Now(),
	}
}

// HasEmail reports whether the user has submitted an email address
func (u *User) HasEmail() bool {
	return u.Email != ""
}

// CommandInProgress reports whether the user has left BASIC
func (u *User) CommandInProgress() bool {
	return u.State != StateBasic
}

// StartRegistration moves the user to WAIT_FOR_EMAIL.
// It returns false when the user is already active.
func (u *User) StartRegistration() bool {
	if u.Active {
		return false
	}
	u.State = StateWaitForEmail
	return true
}

// Activate confirms the email. Only a user in WAIT_FOR_EMAIL can be activated.
func (u *User) Activate() bool {
	if u.State != StateWaitForEmail {
		return false
	}
	u.State = StateEmailConfirmed
	u.Active = true
	return true
}

// Cancel resets the user to BASIC unconditionally
func (u *User) Cancel() {
	u.State = StateBasic
}

// UploadDenial is the reason an upload was refused
type UploadDenial int

const (
	UploadAllowed UploadDenial = iota
	UploadDeniedInactive
	UploadDeniedCommandInProgress
)

// CanUpload applies the upload permission gate. Uploads need an active
// account in BASIC. An inactive account is always refused, whatever its state;
// an active one in any other state, EMAIL_CONFIRMED included, has a command
// in progress until /cancel returns it to BASIC.
func (u *User) CanUpload() UploadDenial {
	if !u.Active {
		return UploadDeniedInactive
	}
	if u.CommandInProgress() {
		return UploadDeniedCommandInProgress
	}
	return UploadAllowed
}

// NormalizeEmail validates and normalizes a submitted email address
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndexByte(raw, '@')
	if at <= 0 || at == len(raw)-1 {
		return "", ErrInvalidEmail
	}
	host := raw[at+1:]
	if !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(raw), nil
}
