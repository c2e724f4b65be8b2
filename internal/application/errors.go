package application

import "errors"

// Service-level failure kinds. Handlers map these onto HTTP status codes;
// anything else bubbles up as a 500.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")

	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyVerified = errors.New("email already verified")
	ErrInvalidOTP      = errors.New("invalid otp")
	ErrOTPExpired      = errors.New("otp expired")

	// Uniform for unknown email and wrong password, to avoid user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")

	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrIncorrectPassword = errors.New("incorrect password")

	ErrTripNotFound  = errors.New("trip not found")
	ErrInvalidTripID = errors.New("invalid trip id")
	ErrNotTripOwner  = errors.New("not the trip owner")
	ErrNoTrips       = errors.New("no trips found")
	ErrUploadFailed  = errors.New("photo upload failed")
)
