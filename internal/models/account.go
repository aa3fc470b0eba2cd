package models

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// PrincipalKind tells owners and renters apart. It is resolved once when a
// request is authenticated.
type PrincipalKind string

const (
	PrincipalOwner  PrincipalKind = "owner"
	PrincipalRenter PrincipalKind = "renter"
)

func (k PrincipalKind) Valid() bool {
	return k == PrincipalOwner || k == PrincipalRenter
}

// Principal is the authenticated caller.
type Principal struct {
	Kind PrincipalKind `json:"kind"`
	ID   int           `json:"id"`
}

func (p Principal) IsOwner(id int) bool  { return p.Kind == PrincipalOwner && p.ID == id }
func (p Principal) IsRenter(id int) bool { return p.Kind == PrincipalRenter && p.ID == id }

type Claims struct {
	Kind   PrincipalKind `json:"kind"`
	UserID int           `json:"user_id"`
	jwt.StandardClaims
}

type Account struct {
	ID           int           `json:"id"`
	Kind         PrincipalKind `json:"kind"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	FullName     string        `json:"fullName"`
	Phone        string        `json:"phone"`
	PasswordHash string        `json:"-"`
	CreatedAt    time.Time     `json:"createdAt"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateNameRequest struct {
	FullName string `json:"fullName" validate:"required"`
}

type Tokens struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	Account      Account `json:"account"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}
