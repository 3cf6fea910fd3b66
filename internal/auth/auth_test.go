package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/cloudalbum/internal/db/memorystorage"
	"github.com/patric-chuzhbe/cloudalbum/internal/user"
)

var testSigningKey = []byte("0123456789abcdef")

func newTestAuth(t *testing.T) (*Auth, *memorystorage.MemoryStorage) {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)

	return New(db, testSigningKey, time.Hour, 24*time.Hour), db
}

func registeredUser(t *testing.T, db *memorystorage.MemoryStorage) *user.User {
	t.Helper()

	usr := &user.User{Email: "a@x.com", Username: "a", PasswordHash: "irrelevant"}
	_, err := db.CreateUser(context.Background(), usr)
	require.NoError(t, err)

	return usr
}

func TestTokenRoundTrip(t *testing.T) {
	authService, db := newTestAuth(t)
	usr := registeredUser(t, db)

	pair, err := authService.IssueTokenPair(usr)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	identity, err := authService.ParseToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, identity.UserID)
	assert.Equal(t, usr.Email, identity.Email)
	assert.NotEmpty(t, identity.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), identity.ExpiresAt, time.Minute)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	authService, db := newTestAuth(t)
	usr := registeredUser(t, db)

	otherAuth := New(db, []byte("another-secret-key"), time.Hour, 24*time.Hour)
	pair, err := otherAuth.IssueTokenPair(usr)
	require.NoError(t, err)

	_, err = authService.ParseToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	authService, _ := newTestAuth(t)

	_, err := authService.ParseToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	authService, db := newTestAuth(t)
	usr := registeredUser(t, db)

	pair, err := authService.IssueTokenPair(usr)
	require.NoError(t, err)

	identity, err := authService.ParseToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, authService.Revoke(context.Background(), identity))

	_, err = authService.ParseToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The refresh token carries its own id and stays valid.
	_, err = authService.ParseToken(context.Background(), pair.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthenticateUserMiddleware(t *testing.T) {
	authService, db := newTestAuth(t)
	usr := registeredUser(t, db)

	pair, err := authService.IssueTokenPair(usr)
	require.NoError(t, err)

	var seenIdentity *Identity
	handler := authService.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenIdentity, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{
			name:         "missing token",
			header:       "",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "malformed token",
			header:       "Bearer nope",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "valid bearer token",
			header:       "Bearer " + pair.AccessToken,
			expectedCode: http.StatusOK,
		},
		{
			name:         "valid raw token",
			header:       pair.AccessToken,
			expectedCode: http.StatusOK,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			seenIdentity = nil

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.header != "" {
				request.Header.Set("Authorization", test.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, test.expectedCode, recorder.Code)
			if test.expectedCode == http.StatusOK {
				require.NotNil(t, seenIdentity)
				assert.Equal(t, usr.ID, seenIdentity.UserID)
			}
		})
	}
}

func TestAuthenticateUserRejectsDeletedUser(t *testing.T) {
	authService, _ := newTestAuth(t)

	// A token for a user missing from the directory must not pass.
	ghost := &user.User{ID: "ghost", Email: "ghost@x.com", Username: "ghost"}
	pair, err := authService.IssueTokenPair(ghost)
	require.NoError(t, err)

	handler := authService.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))
	assert.False(t, CheckPassword("not a hash", "secret1"))
}
