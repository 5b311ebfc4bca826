// Package utils provides helpers for owner tokens and access codes.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// OwnerToken is a signed JWT scoped to one conference along with its
// expiry.  Conference owners obtain it by exchanging their access code
// and present it on owner endpoints.
type OwnerToken struct {
	Token string
	Exp   time.Time
}

// NewOwnerToken builds and signs an HS256 JWT for a conference owner.
// The conference id is carried in the "conf" claim; owner endpoints only
// honor the token for that conference.
func NewOwnerToken(secret, conferenceID string, ttlMin int) (OwnerToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"conf": conferenceID,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return OwnerToken{}, err
	}
	return OwnerToken{Token: signed, Exp: exp}, nil
}

// NewAccessCode returns a random hex access code.  The clear code is
// handed to the owner exactly once; only its bcrypt hash is stored.
func NewAccessCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashAccessCode returns the bcrypt hash of an access code using the
// given cost.
func HashAccessCode(code string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyAccessCode safely compares a stored bcrypt hash and a presented
// access code.
func VerifyAccessCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
