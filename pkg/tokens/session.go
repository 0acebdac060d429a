package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret = errors.New("signing secret is empty")
	ErrInvalidToken  = errors.New("invalid token")
)

// SessionClaims is what the access gate trusts: who the caller is and which
// area they may enter. Subject carries the account id.
type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) UserID() string { return c.Subject }

type Issuer struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Issuer)

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

func NewIssuer(secret []byte, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	i := &Issuer{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs claims with iat=now and exp=now+ttl and returns the expiry it
// wrote into the token.
func (i *Issuer) Issue(claims SessionClaims, ttl time.Duration) (string, time.Time, error) {
	if claims.Subject == "" {
		return "", time.Time{}, errors.New("session subject is empty")
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	now := i.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify never touches storage. Every failure wraps ErrInvalidToken.
func (i *Issuer) Verify(tokenStr string) (*SessionClaims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	var claims SessionClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
