package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailAlreadyExists is returned when a user with the same email is already registered.
	ErrEmailAlreadyExists = errors.New("Email already exists") //nolint:stylecheck
	// ErrUsernameAlreadyExists is returned when a user with the same username is already registered.
	ErrUsernameAlreadyExists = errors.New("Username already exists") //nolint:stylecheck
	// ErrStoreFailure marks any failure of the user store that is not a uniqueness conflict.
	ErrStoreFailure = errors.New("user store failure")

	// ErrInvalidUser is returned when a candidate user is missing required fields.
	ErrInvalidUser = errors.New("invalid user")
	// ErrNoEmail is returned when the candidate user has no email.
	ErrNoEmail = errors.New("Email is required") //nolint:stylecheck
	// ErrNoUsername is returned when the candidate user has no username.
	ErrNoUsername = errors.New("Username is required") //nolint:stylecheck
)

// User represents a registrant of the exam platform.
type User struct {
	ID        int64  `json:"id"`        // Assigned by the store, zero before creation
	Email     string `json:"email"`     // Unique
	Username  string `json:"username"`  // Unique
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`              // Optional
	Role      string `json:"role"`               // e.g. "student" or "teacher"
	Password  string `json:"password,omitempty"` // Stored as received, never echoed
	CreatedAt int64  `json:"createdAt"`          // Unix timestamp of registration
}

// Redacted returns a copy of the user without the password.
func (u User) Redacted() User {
	u.Password = ""

	return u
}

// ErrorKind discriminates the failures a registration can end in.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	DuplicateEmail
	DuplicateUsername
	StoreFailure
	InvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case DuplicateEmail:
		return "duplicate_email"
	case DuplicateUsername:
		return "duplicate_username"
	case StoreFailure:
		return "store_failure"
	case InvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// DuplicateError reports a uniqueness conflict together with the conflicting value.
type DuplicateError struct {
	Kind  ErrorKind // DuplicateEmail or DuplicateUsername
	Value string
}

// NewDuplicateEmailError returns a DuplicateError for the given email.
func NewDuplicateEmailError(email string) *DuplicateError {
	return &DuplicateError{Kind: DuplicateEmail, Value: email}
}

// NewDuplicateUsernameError returns a DuplicateError for the given username.
func NewDuplicateUsernameError(username string) *DuplicateError {
	return &DuplicateError{Kind: DuplicateUsername, Value: username}
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %q", e.sentinel(), e.Value)
}

// Is makes errors.Is match ErrEmailAlreadyExists or ErrUsernameAlreadyExists.
func (e *DuplicateError) Is(target error) bool {
	s := e.sentinel()

	return s != nil && target == s
}

// Message returns the human-readable reason shown to clients.
func (e *DuplicateError) Message() string {
	if s := e.sentinel(); s != nil {
		return s.Error()
	}

	return "duplicate user"
}

func (e *DuplicateError) sentinel() error {
	switch e.Kind {
	case DuplicateEmail:
		return ErrEmailAlreadyExists
	case DuplicateUsername:
		return ErrUsernameAlreadyExists
	default:
		return nil
	}
}

// KindOf classifies err so callers can branch without parsing messages.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return Unknown
	case errors.Is(err, ErrEmailAlreadyExists):
		return DuplicateEmail
	case errors.Is(err, ErrUsernameAlreadyExists):
		return DuplicateUsername
	case errors.Is(err, ErrInvalidUser):
		return InvalidInput
	case errors.Is(err, ErrStoreFailure):
		return StoreFailure
	default:
		return Unknown
	}
}
