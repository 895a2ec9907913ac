// Package identity turns bearer credentials into a Principal.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// ErrInvalidCredential is returned for a bearer that fails verification.
var ErrInvalidCredential = errors.New("identity: invalid credential")

// Principal is the stable identity of a caller. Key is the numeric user id
// as a string when known, otherwise a textual fallback id, empty when anonymous.
type Principal struct {
	Key     string
	UserID  uint
	Numeric bool
}

func (p Principal) Anonymous() bool {
	return p.Key == ""
}

func numeric(userID uint) Principal {
	return Principal{Key: strconv.FormatUint(uint64(userID), 10), UserID: userID, Numeric: true}
}

// Resolver maps a raw bearer token to a Principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// GenerateToken signs claims with HS256, expiring after ttl.
func GenerateToken(secret []byte, userID uint, loginID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:  userID,
		LoginID: loginID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret []byte, tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// JWTResolver accepts tokens signed with the service secret. The numeric
// user id claim wins; the login id is a fallback that cannot receive
// private events keyed by user id.
type JWTResolver struct {
	secret []byte
	logger *slog.Logger
}

func NewJWTResolver(secret string, logger *slog.Logger) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), logger: logger}
}

func (r *JWTResolver) Resolve(_ context.Context, token string) (Principal, error) {
	claims, err := ParseToken(r.secret, token)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	switch {
	case claims.UserID != 0:
		return numeric(claims.UserID), nil
	case claims.LoginID != "":
		r.logger.Warn("token has no user id, falling back to login id",
			slog.String("login_id", claims.LoginID))
		return Principal{Key: claims.LoginID}, nil
	default:
		return Principal{}, nil
	}
}

// TokenVerifier is the subset of *auth.Client used to check Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserLookup maps a Firebase UID to a local user.
type UserLookup interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseResolver accepts Firebase ID tokens. A UID with no linked local
// user resolves to the UID itself.
type FirebaseResolver struct {
	verifier TokenVerifier
	users    UserLookup
	logger   *slog.Logger
}

func NewFirebaseResolver(verifier TokenVerifier, users UserLookup, logger *slog.Logger) *FirebaseResolver {
	return &FirebaseResolver{verifier: verifier, users: users, logger: logger}
}

func (r *FirebaseResolver) Resolve(ctx context.Context, token string) (Principal, error) {
	verified, err := r.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	user, err := r.users.GetUserByFirebaseUID(ctx, verified.UID)
	switch {
	case err == nil:
		return numeric(user.ID), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		r.logger.Warn("firebase user not linked, falling back to uid",
			slog.String("firebase_uid", verified.UID))
		return Principal{Key: verified.UID}, nil
	default:
		return Principal{}, fmt.Errorf("lookup firebase user: %w", err)
	}
}

// ChainResolver tries each resolver in order. An empty token is anonymous.
type ChainResolver []Resolver

func (c ChainResolver) Resolve(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, nil
	}

	err := ErrInvalidCredential
	for _, r := range c {
		p, rerr := r.Resolve(ctx, token)
		if rerr == nil {
			return p, nil
		}
		err = rerr
		if !errors.Is(rerr, ErrInvalidCredential) {
			return Principal{}, rerr
		}
	}
	return Principal{}, err
}
