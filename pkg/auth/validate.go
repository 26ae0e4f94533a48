package auth

import "unicode/utf8"

// Minimum credential lengths, counted in characters.
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// Validation messages.
const (
	MsgUsernameRequired = "Username is required"
	MsgPasswordRequired = "Password is required"
	MsgUsernameTooShort = "Username must be at least 3 characters"
	MsgPasswordTooShort = "Password must be at least 6 characters"
)

// ValidationResult is the outcome of Validate. An empty error string means
// the field is fine.
type ValidationResult struct {
	Valid         bool   `json:"valid"`
	UsernameError string `json:"username_error,omitempty"`
	PasswordError string `json:"password_error,omitempty"`
}

// Validate checks login credentials. Rules are evaluated in order and the
// first one that applies decides the result, so at most one field carries
// an error except when both fields are empty.
func Validate(username, password string) ValidationResult {
	switch {
	case username == "" && password == "":
		return ValidationResult{UsernameError: MsgUsernameRequired, PasswordError: MsgPasswordRequired}
	case username == "":
		return ValidationResult{UsernameError: MsgUsernameRequired}
	case password == "":
		return ValidationResult{PasswordError: MsgPasswordRequired}
	case utf8.RuneCountInString(username) < MinUsernameLength:
		return ValidationResult{UsernameError: MsgUsernameTooShort}
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return ValidationResult{PasswordError: MsgPasswordTooShort}
	default:
		return ValidationResult{Valid: true}
	}
}
