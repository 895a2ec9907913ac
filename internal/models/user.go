package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	LoginID     string    `json:"login_id" gorm:"size:50;uniqueIndex;not null"`
	Nickname    string    `json:"nickname" gorm:"size:50"`
	Email       string    `json:"email" gorm:"size:255"`
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayName returns the nickname when set, otherwise the login id.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.LoginID
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID  uint   `json:"user_id"`
	LoginID string `json:"login_id"`
	jwt.RegisteredClaims
}
