package models

import "strings"

// Account represents a Koyeb account with email and password
type Account struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IsComplete reports whether the account carries both credentials.
// Incomplete accounts are skipped by the batch runner, not failed.
func (a Account) IsComplete() bool {
	return strings.TrimSpace(a.Email) != "" && a.Password != ""
}

// LoginOutcome represents the result of one account's login attempt.
// Login never returns an error; every failure path resolves to
// Success=false with a human-readable reason.
type LoginOutcome struct {
	Account Account
	Success bool
	Message string
}
