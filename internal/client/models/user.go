// Package models holds the client-side projections of backend resources.
package models

// Profile is the public part of a user account.
type Profile struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Course   string `json:"course"`
	PhotoURL string `json:"profile_photo,omitempty"`
}

// User is the authenticated account as returned by GET /auth/user/.
type User struct {
	ID            int     `json:"id"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone,omitempty"`
	EmailVerified bool    `json:"email_verified"`
	Profile       Profile `json:"profile"`
}

// DisplayName prefers the profile name and falls back to the email.
func (u User) DisplayName() string {
	if u.Profile.Name != "" {
		return u.Profile.Name
	}
	return u.Email
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	Name      string `json:"name,omitempty"`
	Course    string `json:"course,omitempty"`
}

// ProfileUpdate is a partial profile patch; nil fields are left untouched.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Course *string `json:"course,omitempty"`
}
