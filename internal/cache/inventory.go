package cache

import (
	"context"
	"fmt"
	"time"
)

// Keys owned by this package. Session keys ("sess:") and rate-limit keys
// ("rl:") live in the session and middleware packages.
const (
	userKeyFormat = "warbler:user:%d"

	// UserTTL bounds how stale a cached user row may be.
	UserTTL = 5 * time.Minute
)

// UserKey is the cache key for the user row with userID.
func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyFormat, userID)
}

// Invalidate deletes keys. Errors are counted by the client hook and otherwise
// ignored; the entries expire on their own.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	_ = client.Del(ctx, keys...).Err()
}

// InvalidateUser drops the cached row for userID after an update or delete.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
