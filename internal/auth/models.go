package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID        int64     `json:"-"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	Password  []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserClaim struct {
	Username string `json:"username"`
	Email    string `json:"email"`

	jwt.RegisteredClaims
}
