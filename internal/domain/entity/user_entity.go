package entity

import "time"

// Gender values accepted for the profile gender field.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderNA     = "N/A"
)

// User is the aggregate root for the credential store.
// Passwords are stored as bcrypt hashes in Password.
// The OTP and reset-token fields are mutually exclusive in purpose and are
// cleared immediately after successful use.
type User struct {
	ID       string
	Username string
	Email    string
	Password string

	// Profile
	Name        string
	Gender      string
	Language    string
	Country     string
	City        string
	DOB         *time.Time
	Phone       string
	SocialLinks map[string]string
	AvatarURL   string
	CoverURL    string

	// Email verification
	VerifiedEmail         bool
	VerifyEmailOTP        string
	VerifyEmailOTPExpires *time.Time

	// Password reset
	ResetPasswordToken   string
	ResetPasswordExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the sanitized view of a user: no password hash, no OTP or
// reset-token material. Every API response carrying a user uses this shape.
type PublicUser struct {
	ID            string            `json:"id"`
	Username      string            `json:"username"`
	Email         string            `json:"email"`
	Name          string            `json:"name,omitempty"`
	Gender        string            `json:"gender,omitempty"`
	Language      string            `json:"language,omitempty"`
	Country       string            `json:"country,omitempty"`
	City          string            `json:"city,omitempty"`
	DOB           *time.Time        `json:"dob,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	SocialLinks   map[string]string `json:"socialLinks,omitempty"`
	AvatarURL     string            `json:"avatarUrl,omitempty"`
	CoverURL      string            `json:"coverUrl,omitempty"`
	VerifiedEmail bool              `json:"verifiedEmail"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Sanitized strips credential material for transmission.
func (u *User) Sanitized() *PublicUser {
	return &PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Name:          u.Name,
		Gender:        u.Gender,
		Language:      u.Language,
		Country:       u.Country,
		City:          u.City,
		DOB:           u.DOB,
		Phone:         u.Phone,
		SocialLinks:   u.SocialLinks,
		AvatarURL:     u.AvatarURL,
		CoverURL:      u.CoverURL,
		VerifiedEmail: u.VerifiedEmail,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// ClearVerifyOTP removes spent OTP material.
func (u *User) ClearVerifyOTP() {
	u.VerifyEmailOTP = ""
	u.VerifyEmailOTPExpires = nil
}

// ClearResetToken removes spent reset-token material.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
}
