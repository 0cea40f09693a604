// Package sessioning binds opaque session handles to user identities.
//
// A handle is a random UUID stored in Redis with a TTL. Clients never see the handle
// directly: it travels inside an HS256-signed token so a forged cookie is rejected
// before Redis is consulted. Ending a session deletes the handle, so a token outlives
// its session only as an inert string.
package sessioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"strider/internal/cache"
	"strider/internal/models"
	"strider/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const issuer = "strider"

// Concept manages live sessions.
type Concept struct {
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
}

// New builds the concept. secret signs tokens; ttl bounds how long a session lives.
func New(rdb *redis.Client, secret []byte, ttl time.Duration) *Concept {
	return &Concept{rdb: rdb, secret: secret, ttl: ttl}
}

// TTL returns the session lifetime, which the transport reuses for cookie expiry.
func (c *Concept) TTL() time.Duration {
	return c.ttl
}

// Start binds a new session to userID and returns its token.
func (c *Concept) Start(ctx context.Context, userID uuid.UUID) (string, error) {
	handle := uuid.NewString()
	if err := c.rdb.Set(ctx, cache.SessionKey(handle), userID.String(), c.ttl).Err(); err != nil {
		return "", models.NewInternalError(fmt.Errorf("store session: %w", err))
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        handle,
		Subject:   userID.String(),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("sign session token: %w", err))
	}

	observability.SessionEvents.WithLabelValues("start").Inc()
	return signed, nil
}

// End unbinds the session. Ending a session that carries no identity is Unauthenticated.
func (c *Concept) End(ctx context.Context, token string) error {
	handle, err := c.handle(token)
	if err != nil {
		return err
	}
	n, err := c.rdb.Del(ctx, cache.SessionKey(handle)).Result()
	if err != nil {
		return models.NewInternalError(fmt.Errorf("end session: %w", err))
	}
	if n == 0 {
		return notLoggedIn()
	}
	observability.SessionEvents.WithLabelValues("end").Inc()
	return nil
}

// GetUser returns the identity bound to token.
func (c *Concept) GetUser(ctx context.Context, token string) (uuid.UUID, error) {
	handle, err := c.handle(token)
	if err != nil {
		return uuid.Nil, err
	}

	raw, err := c.rdb.Get(ctx, cache.SessionKey(handle)).Result()
	if errors.Is(err, redis.Nil) {
		observability.SessionEvents.WithLabelValues("expired").Inc()
		return uuid.Nil, notLoggedIn()
	}
	if err != nil {
		return uuid.Nil, models.NewInternalError(fmt.Errorf("read session: %w", err))
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, models.NewInternalError(fmt.Errorf("corrupt session %s: %w", handle, err))
	}
	return userID, nil
}

// IsLoggedOut fails with NotAllowed when token carries an identity.
func (c *Concept) IsLoggedOut(ctx context.Context, token string) error {
	_, err := c.GetUser(ctx, token)
	switch {
	case err == nil:
		return models.NewNotAllowedError("Must be logged out")
	case models.HasCode(err, models.CodeUnauthenticated):
		return nil
	default:
		return err
	}
}

func (c *Concept) handle(token string) (string, error) {
	if token == "" {
		return "", notLoggedIn()
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.ID == "" {
		observability.SessionEvents.WithLabelValues("rejected").Inc()
		return "", notLoggedIn()
	}
	return claims.ID, nil
}

func notLoggedIn() error {
	return models.NewUnauthenticatedError("Must be logged in")
}
