package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTRoundTrip(t *testing.T) {
	jm := NewJWTManager("0123456789abcdef", 1)

	token, err := jm.GenerateToken("user-1", "a@example.com", "Alice")
	require.NoError(t, err)

	claims, err := jm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "travelbuddy", claims.Issuer)
}

func TestJWTRejectsForeignSecretAndExpiry(t *testing.T) {
	token, err := NewJWTManager("0123456789abcdef", 1).GenerateToken("user-1", "a@example.com", "Alice")
	require.NoError(t, err)

	_, err = NewJWTManager("fedcba9876543210", 1).ValidateToken(token)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "travelbuddy",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte("0123456789abcdef"))
	require.NoError(t, err)

	_, err = NewJWTManager("0123456789abcdef", 1).ValidateToken(signed)
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	digest, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", digest)

	ok, err := h.Verify("correct horse", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("x", "not-a-bcrypt-hash")
	assert.Error(t, err)
}

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Seats    int    `json:"seats" validate:"min=1"`
}

func TestValidatorStructMessages(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(signup{Email: "a@example.com", Password: "12345678", Seats: 1}))

	err := v.Struct(signup{Password: "12345678", Seats: 1})
	require.Error(t, err)
	assert.Equal(t, "email is required", err.Error())

	err = v.Struct(signup{Email: "nope", Password: "12345678", Seats: 1})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email address", err.Error())

	err = v.Struct(signup{Email: "a@example.com", Password: "short", Seats: 1})
	require.Error(t, err)
	assert.Equal(t, "password must be at least 8 characters", err.Error())

	err = v.Struct(signup{Email: "a@example.com", Password: "12345678"})
	require.Error(t, err)
	assert.Equal(t, "seats must be at least 1", err.Error())
}

func TestValidatorHelpers(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.ValidateURL("https://cdn.example.com/me.png"))
	assert.False(t, v.ValidateURL("javascript:alert(1)"))
	assert.True(t, v.ValidateID("3f1c2a9e-8a4b-4c1d-9e2f-0a1b2c3d4e5f"))
	assert.False(t, v.ValidateID("42"))
	assert.Equal(t, "hello", v.SanitizeInput("  hel\x00lo\n "))
	assert.Equal(t, []string{"hiking", "food"}, v.SanitizeList([]string{" hiking ", "", "\t", "food"}))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2025-03-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("March 1st")
	assert.Error(t, err)
}
