package models

import (
	"time"
)

// FreeTierCredits is granted once, when the user row is first created.
const FreeTierCredits = 10

type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ProviderID string    `json:"provider_id" gorm:"uniqueIndex;not null"`
	Email      string    `json:"email" gorm:"not null"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Avatar     string    `json:"avatar"`
	Credits    int       `json:"credits" gorm:"not null;default:0"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserIdentity is what the auth middleware extracts from the provider token.
type UserIdentity struct {
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
	Avatar     string
}

type UserProfileResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserProfileResponse(u *User) UserProfileResponse {
	return UserProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt,
	}
}
