package api

import "time"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	UserName    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	City        string `json:"city,omitempty"`
	FullAddress string `json:"full_address,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	GenderID    int    `json:"gender_id,omitempty"`
	RegionID    int    `json:"region_id,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a successful authentication outcome. Token and ExpiresOn are
// empty for /auth/me.
type Session struct {
	IsAuthenticated bool       `json:"is_authenticated"`
	UserName        string     `json:"username"`
	Email           string     `json:"email"`
	Roles           []string   `json:"roles"`
	Token           string     `json:"token"`
	ExpiresOn       *time.Time `json:"expires_on"`
}
