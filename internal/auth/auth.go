// Package auth provides JWT-based authentication for HTTP requests:
// token issuing on signin, parsing and revocation checks in the
// middleware, and bcrypt password hashing.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/cloudalbum/internal/logger"
	"github.com/patric-chuzhbe/cloudalbum/internal/models"
	"github.com/patric-chuzhbe/cloudalbum/internal/user"
)

// ErrInvalidToken is returned for malformed, expired, mis-signed
// or revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

type userKeeper interface {
	GetUserByID(ctx context.Context, userID string) (*user.User, error)
}

type tokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type storage interface {
	userKeeper
	tokenRevoker
}

// Claims are the JWT claims of both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Identity is the authenticated principal derived from a verified
// token. It is the only value handlers may bind registry operations to.
type Identity struct {
	UserID   string
	Email    string
	Username string

	// TokenID and ExpiresAt identify the presented token for signout.
	TokenID   string
	ExpiresAt time.Time
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// IdentityKey is the context key under which the middleware stores the
// authenticated Identity.
const IdentityKey ContextKey = "identity"

// TokenPair bundles the tokens returned by signin.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Auth issues and verifies tokens and guards photo routes.
type Auth struct {
	db              storage
	signingKey      []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// New creates an Auth with the given storage, HMAC key and token TTLs.
func New(
	db storage,
	signingKey []byte,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
) *Auth {
	return &Auth{
		db:              db,
		signingKey:      signingKey,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// IssueTokenPair builds the access and refresh tokens for a signed-in user.
func (a *Auth) IssueTokenPair(usr *user.User) (*TokenPair, error) {
	accessToken, err := a.buildJWTString(usr, a.accessTokenTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := a.buildJWTString(usr, a.refreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (a *Auth) buildJWTString(usr *user.User, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID:   usr.ID,
		Email:    usr.Email,
		Username: usr.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry and checks the
// revocation set. It returns the token's identity.
func (a *Auth) ParseToken(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	revoked, err := a.db.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	identity := &Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

// Revoke denylists the identity's token until its natural expiry.
func (a *Auth) Revoke(ctx context.Context, identity *Identity) error {
	return a.db.RevokeToken(ctx, identity.TokenID, identity.ExpiresAt)
}

func tokenStringFromRequest(request *http.Request) string {
	tokenString := request.Header.Get("Authorization")
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	return strings.TrimSpace(tokenString)
}

// AuthenticateUser is an HTTP middleware that authenticates requests by
// the bearer token in the Authorization header. The user must still
// exist in the directory; the resulting Identity lands in the request
// context under IdentityKey.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString := tokenStringFromRequest(request)
		if tokenString == "" {
			writeUnauthorized(response, "missing authorization token")

			return
		}

		identity, err := a.ParseToken(request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				logger.Log.Debugln("Error calling the `a.ParseToken()`: ", zap.Error(err))
				writeInternalError(response)

				return
			}
			writeUnauthorized(response, "invalid authorization token")

			return
		}

		if _, err := a.db.GetUserByID(request.Context(), identity.UserID); err != nil {
			writeUnauthorized(response, "invalid authorization token")

			return
		}

		ctx := context.WithValue(request.Context(), IdentityKey, identity)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// IdentityFromContext extracts the Identity stored by AuthenticateUser.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*Identity)

	return identity, ok && identity != nil
}

func writeUnauthorized(response http.ResponseWriter, message string) {
	if err := models.WriteError(response, http.StatusUnauthorized, message); err != nil {
		logger.Log.Debugln("Error writing the response: ", zap.Error(err))
	}
}

func writeInternalError(response http.ResponseWriter) {
	if err := models.WriteError(response, http.StatusInternalServerError, "internal server error"); err != nil {
		logger.Log.Debugln("Error writing the response: ", zap.Error(err))
	}
}
