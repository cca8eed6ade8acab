package auth

import "errors"

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDuplicate
	KindUnauthorized
	KindForbidden
	KindNotFound
)

// Error is a caller-safe error: Message is what gets returned to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// ValidationError wraps a message as a KindValidation error.
func ValidationError(msg string) error {
	return newError(KindValidation, msg)
}

var (
	ErrUserExists  = newError(KindDuplicate, "Username is already taken.")
	ErrAdminExists = newError(KindDuplicate, "Admin username already taken.")

	ErrUserNotFound    = newError(KindNotFound, "User not found")
	ErrAdminNotFound   = newError(KindNotFound, "Admin not found")
	ErrSettingNotFound = newError(KindNotFound, "Setting not found")

	ErrInvalidCredentials      = newError(KindUnauthorized, "Invalid credentials")
	ErrInvalidAdminCredentials = newError(KindUnauthorized, "Invalid admin credentials")

	ErrAccountPending     = newError(KindForbidden, "Account not yet approved by admin.")
	ErrAccountDeactivated = newError(KindForbidden, "Account deactivated. Contact admin.")
	ErrAccountExpired     = newError(KindForbidden, "Account expired.")
	ErrSelfDelete         = newError(KindForbidden, "You can't delete your own admin account.")

	ErrInvalidExpiryDays = newError(KindValidation, "Invalid expiry days")
)

// Token verification failures. All of them are Unauthorized.
var (
	ErrMalformedToken = newError(KindUnauthorized, "malformed token")
	ErrBadSignature   = newError(KindUnauthorized, "bad token signature")
	ErrTokenExpired   = newError(KindUnauthorized, "token expired")
)

// Authorization gate failures.
var (
	ErrTokenRequired      = newError(KindUnauthorized, "Token required")
	ErrInvalidToken       = newError(KindUnauthorized, "Invalid token")
	ErrSessionSuperseded  = newError(KindUnauthorized, "Session expired or user not approved")
	ErrSubjectNotFound    = newError(KindUnauthorized, "Session expired or user not approved")
	ErrGateAccountExpired = newError(KindForbidden, "Account expired")

	ErrAdminTokenRequired = newError(KindUnauthorized, "Admin token required")
	ErrInvalidAdminToken  = newError(KindUnauthorized, "Invalid admin token")
	ErrUnknownAdmin       = newError(KindUnauthorized, "Invalid admin")
)

// KindOf reports the Kind of err, or 0 when err is not a classified error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message returns the client-facing message of a classified error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
