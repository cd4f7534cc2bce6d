// Package identity issues and verifies the signed session cookie that
// carries the stable user id. Visitors without a valid cookie receive a new
// anonymous identity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	applog "registros/internal/log"
)

const (
	CookieName     = "registros_session"
	issuer         = "registros"
	minSecretBytes = 16
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrWeakSecret   = errors.New("session secret must be at least 16 bytes")
)

// Claims carried in the session token.
type Claims struct {
	jwt.RegisteredClaims
	Anonymous bool `json:"anon"`
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	logger *applog.Logger
}

// NewIssuer returns an issuer. secure controls the cookie's Secure flag.
func NewIssuer(secret string, ttl time.Duration, secure bool, logger *applog.Logger) (*Issuer, error) {
	if len(secret) < minSecretBytes {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
		logger: logger.OrDefault().WithComponent(applog.ComponentIdentity),
	}, nil
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID string, anonymous bool) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		Anonymous: anonymous,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id of a valid token.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Middleware resolves the user id of every request, minting an anonymous
// identity when the cookie is missing or invalid.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(CookieName); err == nil {
			if userID, err := i.Verify(c.Value); err == nil {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}
			i.logger.WarnContext(r.Context(), "Discarding invalid session cookie")
		}

		userID := uuid.NewString()
		token, err := i.Issue(userID, true)
		if err != nil {
			i.logger.ErrorContext(r.Context(), "Failed to issue session token", applog.FieldError, err)
			next.ServeHTTP(w, r)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			Expires:  i.now().Add(i.ttl),
			HttpOnly: true,
			Secure:   i.secure,
			SameSite: http.SameSiteLaxMode,
		})
		i.logger.InfoContext(r.Context(), "Anonymous identity issued", applog.FieldUserID, userID)
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

type ctxKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the user id resolved by Middleware, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
