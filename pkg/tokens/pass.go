package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const day = 24 * time.Hour

// PassClaims is the bus pass countdown. It grants nothing: clients decode it
// without checking the signature and only display the days left.
type PassClaims struct {
	UserID          string `json:"userId"`
	ExpiresAtMillis int64  `json:"expiresAt"`
	jwt.RegisteredClaims
}

func (c *PassClaims) Expiry() time.Time { return time.UnixMilli(c.ExpiresAtMillis) }

func (i *Issuer) IssuePass(userID string, window time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("pass user id is empty")
	}

	now := i.now()
	exp := now.Add(window)
	claims := PassClaims{
		UserID:          userID,
		ExpiresAtMillis: exp.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign pass token: %w", err)
	}
	return signed, time.UnixMilli(claims.ExpiresAtMillis), nil
}

// DecodePass reads the payload without verifying the signature.
func DecodePass(tokenStr string) (*PassClaims, error) {
	var claims PassClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return nil, fmt.Errorf("decode pass: %w", err)
	}
	if claims.UserID == "" || claims.ExpiresAtMillis == 0 {
		return nil, errors.New("decode pass: payload is not a pass")
	}
	return &claims, nil
}

// RemainingDays is floor((expiresAt - now) / 24h), never below zero.
func RemainingDays(claims *PassClaims, now time.Time) int {
	left := claims.ExpiresAtMillis - now.UnixMilli()
	if left <= 0 {
		return 0
	}
	return int(left / day.Milliseconds())
}
