package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-tracker/models"
)

func newJWTServiceForTests(now time.Time) *JWTService {
	s := NewJWTService("test-secret", time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestJWTService_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newJWTServiceForTests(now)
	user := models.User{ID: primitive.NewObjectID(), Email: "ana@example.com", Role: models.RoleManager}

	token, expires, err := s.GenerateAuthToken(user)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	actor, err := s.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, models.RoleManager, actor.Role)
}

func TestJWTService_Rejects(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newJWTServiceForTests(now)
	user := models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	token, _, err := s.GenerateAuthToken(user)
	require.NoError(t, err)

	_, err = s.Authenticate("")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = s.Authenticate("Bearer not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	other := newJWTServiceForTests(now)
	other.secret = []byte("another-secret")
	_, err = other.Authenticate(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	later := newJWTServiceForTests(now.Add(2 * time.Hour))
	_, err = later.Authenticate(token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "expired tokens are rejected")
}

func TestJWTService_RejectsUnknownRole(t *testing.T) {
	now := time.Now()
	s := newJWTServiceForTests(now)
	claims := &Claims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	require.NoError(t, err)

	_, err = s.Authenticate(signed)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
