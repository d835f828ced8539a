package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"lexbrief/internal/config"
	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ===== Session/JWT primitives =====

type AuthManager struct {
	secret       []byte
	cookieName   string
	secureCookie bool
	ttl          time.Duration
}

func NewAuthManager(cfg config.AuthConfig, secure bool) *AuthManager {
	return &AuthManager{
		secret:       []byte(cfg.Secret),
		cookieName:   cfg.CookieName,
		secureCookie: secure,
		ttl:          cfg.TokenTTL,
	}
}

// SessionClaims identify a user and one login session. The JWT id is the
// session id that scopes in-memory attachments.
type SessionClaims struct {
	Guest bool `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// Mint signs a new session token. Every call starts a new login session.
func (a *AuthManager) Mint(userID string, guest bool) (string, error) {
	if userID == "" {
		return "", domain.ErrInvalidArgument
	}
	now := time.Now()
	claims := SessionClaims{
		Guest: guest,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *AuthManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

var errMissingToken = errors.New("missing token")

// ParseFromRequest reads the bearer token first and the session cookie second.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*model.Principal, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	if c, err := r.Cookie(a.cookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errMissingToken
}

func (a *AuthManager) parse(tok string) (*model.Principal, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	sid := claims.ID
	if sid == "" {
		sid = claims.Subject
	}
	return &model.Principal{UserID: claims.Subject, SessionID: sid, Guest: claims.Guest}, nil
}
