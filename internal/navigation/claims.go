package navigation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/roles"
)

// ErrNoCredentials means the browser presented no API cookies.
var ErrNoCredentials = errors.New("navigation: no credentials")

// Claim is the identity a ClaimSource resolved for a set of credentials.
type Claim struct {
	Role     roles.Role `json:"role"`
	UserID   string     `json:"user_id"`
	Username string     `json:"username"`
	// Cookies carry rotated API tokens to relay to the browser. Never cached.
	Cookies []*http.Cookie `json:"-"`
}

// ClaimSource resolves the role claim of the visitor.
type ClaimSource interface {
	Claim(ctx context.Context, creds backend.Credentials) (Claim, error)
}

// Identifier is the part of the API client the guard depends on.
type Identifier interface {
	IsLoggedIn(ctx context.Context, creds backend.Credentials) (backend.User, []*http.Cookie, error)
}

// RemoteClaims asks the API on every navigation.
type RemoteClaims struct {
	API Identifier
}

// Claim implements ClaimSource.
func (s RemoteClaims) Claim(ctx context.Context, creds backend.Credentials) (Claim, error) {
	if creds.Empty() {
		return Claim{}, ErrNoCredentials
	}
	user, cookies, err := s.API.IsLoggedIn(ctx, creds)
	if err != nil {
		return Claim{}, err
	}
	role, err := roles.Parse(user.UserGroup)
	if err != nil {
		return Claim{}, err
	}
	return Claim{Role: role, UserID: string(user.ID), Username: user.Username, Cookies: cookies}, nil
}

// CachedClaims keeps resolved claims in Redis for a short time so that a burst
// of navigations costs one API round trip. Cache failures fall through to the
// wrapped source.
type CachedClaims struct {
	Source ClaimSource
	Client *redis.Client
	TTL    time.Duration
}

// Claim implements ClaimSource.
func (c CachedClaims) Claim(ctx context.Context, creds backend.Credentials) (Claim, error) {
	if creds.Empty() {
		return Claim{}, ErrNoCredentials
	}
	if c.Client == nil || c.TTL <= 0 {
		return c.Source.Claim(ctx, creds)
	}
	key := claimKey(creds)
	if raw, err := c.Client.Get(ctx, key).Bytes(); err == nil {
		var cached Claim
		if json.Unmarshal(raw, &cached) == nil && cached.Role.Valid() {
			return cached, nil
		}
	}

	claim, err := c.Source.Claim(ctx, creds)
	if err != nil {
		return Claim{}, err
	}
	if data, err := json.Marshal(claim); err == nil {
		_ = c.Client.Set(ctx, key, data, c.TTL).Err()
	}
	return claim, nil
}

// Invalidate drops the cached claim, used on logout.
func (c CachedClaims) Invalidate(ctx context.Context, creds backend.Credentials) error {
	if c.Client == nil || creds.Empty() {
		return nil
	}
	if err := c.Client.Del(ctx, claimKey(creds)).Err(); err != nil {
		return fmt.Errorf("navigation: invalidate claim: %w", err)
	}
	return nil
}

func claimKey(creds backend.Credentials) string {
	sum := sha256.Sum256([]byte(creds.AuthToken + "|" + creds.RefreshToken))
	return "kantine:claim:" + hex.EncodeToString(sum[:])
}
