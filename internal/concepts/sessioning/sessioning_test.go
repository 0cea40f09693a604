package sessioning_test

import (
	"context"
	"testing"
	"time"

	"strider/internal/concepts/sessioning"
	"strider/internal/models"
	"strider/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret-that-is-long-enough-123")

func TestStartGetEnd(t *testing.T) {
	ctx := context.Background()
	_, rdb := testutil.NewRedis(t)
	sessions := sessioning.New(rdb, secret, time.Hour)
	alice := uuid.New()

	token, err := sessions.Start(ctx, alice)
	require.NoError(t, err)

	got, err := sessions.GetUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	err = sessions.IsLoggedOut(ctx, token)
	assert.True(t, models.HasCode(err, models.CodeNotAllowed))

	require.NoError(t, sessions.End(ctx, token))

	_, err = sessions.GetUser(ctx, token)
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
	assert.NoError(t, sessions.IsLoggedOut(ctx, token))

	err = sessions.End(ctx, token)
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	_, rdb := testutil.NewRedis(t)
	sessions := sessioning.New(rdb, secret, time.Hour)

	a, err := sessions.Start(ctx, uuid.New())
	require.NoError(t, err)
	b, err := sessions.Start(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, sessions.End(ctx, a))
	_, err = sessions.GetUser(ctx, b)
	assert.NoError(t, err)
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testutil.NewRedis(t)
	sessions := sessioning.New(rdb, secret, time.Hour)

	token, err := sessions.Start(ctx, uuid.New())
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = sessions.GetUser(ctx, token)
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
}

func TestRejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	_, rdb := testutil.NewRedis(t)
	sessions := sessioning.New(rdb, secret, time.Hour)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    "strider",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := forged.SignedString([]byte("some-other-secret-entirely-000000"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not-a-token",
		"forged":  signed,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := sessions.GetUser(ctx, token)
			assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
			assert.NoError(t, sessions.IsLoggedOut(ctx, token))
		})
	}
}

func TestRedisFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testutil.NewRedis(t)
	sessions := sessioning.New(rdb, secret, time.Hour)

	token, err := sessions.Start(ctx, uuid.New())
	require.NoError(t, err)
	mr.Close()

	_, err = sessions.GetUser(ctx, token)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.True(t, models.HasCode(sessions.IsLoggedOut(ctx, token), models.CodeInternal))
}
