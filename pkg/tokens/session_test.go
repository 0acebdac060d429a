package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestIssuer(t *testing.T) (*Issuer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	iss, err := NewIssuer(testSecret, WithClock(clock.Now))
	require.NoError(t, err)
	return iss, clock
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer(nil)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	roles := []string{"admin", "student"}
	for _, role := range roles {
		role := role
		t.Run(role, func(t *testing.T) {
			t.Parallel()

			iss, clock := newTestIssuer(t)
			id := uuid.NewString()
			in := SessionClaims{Email: role + "@x.com", Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: id}}

			tok, exp, err := iss.Issue(in, time.Hour)
			require.NoError(t, err)
			assert.True(t, clock.Now().Add(time.Hour).Equal(exp))

			out, err := iss.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, id, out.UserID())
			assert.Equal(t, in.Email, out.Email)
			assert.Equal(t, role, out.Role)
			assert.True(t, clock.Now().Equal(out.IssuedAt.Time))
			assert.True(t, exp.Equal(out.ExpiresAt.Time))
		})
	}
}

func TestIssuer_VerifyFailsAfterExpiry(t *testing.T) {
	t.Parallel()

	iss, clock := newTestIssuer(t)
	tok, _, err := iss.Issue(SessionClaims{Role: "student", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}, time.Hour)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = iss.Verify(tok)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_VerifyRejects(t *testing.T) {
	t.Parallel()

	iss, _ := newTestIssuer(t)
	good, _, err := iss.Issue(SessionClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}, time.Hour)
	require.NoError(t, err)

	other, err := NewIssuer([]byte("another-secret"))
	require.NoError(t, err)
	foreign, _, err := other.Issue(SessionClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}, time.Hour)
	require.NoError(t, err)

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name string
		tok  string
	}{
		{name: "empty", tok: ""},
		{name: "malformed", tok: "not-a-jwt"},
		{name: "tampered", tok: good[:len(good)-2] + "xx"},
		{name: "foreign secret", tok: foreign},
		{name: "alg none", tok: noneTok},
		{name: "no expiry", tok: noExp},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := iss.Verify(tt.tok)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssuer_IssueValidation(t *testing.T) {
	t.Parallel()

	iss, _ := newTestIssuer(t)

	_, _, err := iss.Issue(SessionClaims{Role: "admin"}, time.Hour)
	assert.Error(t, err)

	_, _, err = iss.Issue(SessionClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}, 0)
	assert.Error(t, err)
}

func registered(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: sub}
}
