package models

import "github.com/golang-jwt/jwt/v5"

// StaffRole is the role carried in staff access tokens.
type StaffRole string

const (
	StaffAdmin     StaffRole = "ADMIN"
	StaffModerator StaffRole = "MODERATOR"
)

// JWTClaims represents the payload of staff access tokens issued by the admin auth service.
type JWTClaims struct {
	UserID string    `json:"user_id"`
	Role   StaffRole `json:"role"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}
