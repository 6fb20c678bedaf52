package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of minted player tokens.
const DefaultTokenTTL = 90 * 24 * time.Hour

// ErrNoSecret is returned when minting without a signing secret.
var ErrNoSecret = errors.New("leaderboard: no signing secret configured")

type ctxPlayerKey struct{}

// Auth signs and verifies player write tokens. The secret never leaves the
// server; clients only hold a token for their own player name.
type Auth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuth creates an Auth. An empty secret disables verification.
func NewAuth(secret string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Auth{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether write requests need a token.
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0
}

// Mint signs a token for player.
func (a *Auth) Mint(player string) (string, error) {
	if !a.Enabled() {
		return "", ErrNoSecret
	}
	now := a.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strings.TrimSpace(player),
		"iat": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	})
	signed, err := t.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("leaderboard: cannot sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a token and returns the player it was minted for.
func (a *Auth) Verify(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("leaderboard: invalid token: %w", err)
	}
	player, _ := claims["sub"].(string)
	if player == "" {
		return "", errors.New("leaderboard: token has no player")
	}
	return player, nil
}

// requireToken rejects requests without a valid bearer token when a secret
// is configured, and stores the token's player in the request context.
func (a *Auth) requireToken() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			tokenStr := bearer(r)
			if tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "missing token")
				return
			}
			player, err := a.Verify(tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxPlayerKey{}, player)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenPlayer returns the player authenticated for r, if any.
func tokenPlayer(r *http.Request) (string, bool) {
	player, ok := r.Context().Value(ctxPlayerKey{}).(string)
	return player, ok
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
