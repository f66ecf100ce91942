package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the PostgreSQL user directory row for a Firebase account.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FirebaseUID string    `json:"firebase_uid" gorm:"uniqueIndex;size:128"`
	Name        string    `json:"name"`
	Email       string    `json:"email" gorm:"index"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public view returned by search.
type UserCompact struct {
	FirebaseUID string `json:"userId"`
	Name        string `json:"name"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{FirebaseUID: u.FirebaseUID, Name: u.Name, PhotoURL: u.PhotoURL}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID      uint   `json:"user_id"`
	FirebaseUID string `json:"firebase_uid"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}
