package user

import "time"

type User struct {
	ID           int       `db:"id" json:"id" example:"1"`
	Email        string    `db:"email" json:"email" example:"member@example.com"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role" example:"customer"`
	FullName     string    `db:"full_name" json:"full_name" example:"Asha Rao"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number" example:"9876543210"`
	UPIID        string    `db:"upi_id" json:"upi_id,omitempty" example:"asha@okbank"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// HasContactDetails reports whether the profile carries a name and phone number,
// both of which are needed before a booking can be made.
func (u *User) HasContactDetails() bool {
	return u.FullName != "" && u.PhoneNumber != ""
}

type RegisterRequest struct {
	FullName string `json:"full_name" binding:"required,min=2,max=100" example:"Asha Rao"`
	Email    string `json:"email" binding:"required,email" example:"member@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"s3cretpass"`
	Phone    string `json:"phone_number" binding:"omitempty,numeric,len=10" example:"9876543210"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"member@example.com"`
	Password string `json:"password" binding:"required" example:"s3cretpass"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest leaves a field unchanged when it is nil.
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name" binding:"omitempty,min=2,max=100" example:"Asha Rao"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,numeric,len=10" example:"9876543210"`
	UPIID       *string `json:"upi_id" binding:"omitempty,max=100" example:"asha@okbank"`
}
