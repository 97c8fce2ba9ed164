package auth

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"v2v-radar/service/internal/config"
)

const testSecret = "test-secret"

type fakeSubjectStore struct {
	known map[string]bool
	calls atomic.Int64
}

func (f *fakeSubjectStore) SubjectExists(ctx context.Context, subject string) (bool, error) {
	f.calls.Add(1)
	return f.known[subject], nil
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testConfig(subjects ...string) *config.Config {
	cfg := config.Load()
	cfg.AuthJWTSecret = testSecret
	cfg.AuthStaticSubjects = subjects
	return cfg
}

func TestValidateStaticSubject(t *testing.T) {
	a := NewAuthenticator(testConfig("car-1"), nil)

	assert.True(t, a.Validate(context.Background(), signToken(t, testSecret, "car-1")))
	assert.False(t, a.Validate(context.Background(), signToken(t, testSecret, "car-2")))
}

func TestValidateRejectsBadSignature(t *testing.T) {
	a := NewAuthenticator(testConfig("car-1"), nil)

	assert.False(t, a.Validate(context.Background(), signToken(t, "other-secret", "car-1")))
	assert.False(t, a.Validate(context.Background(), "not-a-token"))
	assert.False(t, a.Validate(context.Background(), ""))
}

func TestValidateRejectsMissingSubject(t *testing.T) {
	a := NewAuthenticator(testConfig(), nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.False(t, a.Validate(context.Background(), signed))
}

func TestValidateUserStoreTierIsCached(t *testing.T) {
	store := &fakeSubjectStore{known: map[string]bool{"car-9": true}}
	a := NewAuthenticator(testConfig(), store)
	token := signToken(t, testSecret, "car-9")

	require.True(t, a.Validate(context.Background(), token))
	require.True(t, a.Validate(context.Background(), token))

	assert.Equal(t, int64(1), store.calls.Load(), "second lookup must hit the cache")
}

func TestValidateUnknownSubject(t *testing.T) {
	store := &fakeSubjectStore{known: map[string]bool{}}
	a := NewAuthenticator(testConfig(), store)

	assert.False(t, a.Validate(context.Background(), signToken(t, testSecret, "stranger")))
}

func TestValidateNoStoreNoStatic(t *testing.T) {
	a := NewAuthenticator(testConfig(), nil)

	assert.False(t, a.Validate(context.Background(), signToken(t, testSecret, "car-1")))
}
