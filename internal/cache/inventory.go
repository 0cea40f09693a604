package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	UsernameKeyPrefix = "user:%s:username"
	ProfileKeyPrefix  = "user:%s:profile"
	SessionKeyPrefix  = "session:%s"
)

const (
	UsernameTTL = 10 * time.Minute
	ProfileTTL  = 5 * time.Minute
)

func UsernameKey(userID uuid.UUID) string {
	return fmt.Sprintf(UsernameKeyPrefix, userID)
}

func ProfileKey(userID uuid.UUID) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func SessionKey(handle string) string {
	return fmt.Sprintf(SessionKeyPrefix, handle)
}

func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb != nil && len(keys) > 0 {
		rdb.Del(ctx, keys...)
	}
}

// InvalidateUser drops every cached view of the account.
func InvalidateUser(ctx context.Context, rdb *redis.Client, userID uuid.UUID) {
	Invalidate(ctx, rdb, UsernameKey(userID), ProfileKey(userID))
}
