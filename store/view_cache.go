package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to
	// represent true
	redisTrue = "1"

	viewKeyDelimiter = "__"
)

// ViewStatusCache keeps (viewer, post) seen flags in redis so a hot feed page
// can be partitioned without touching the ledger table. Entries are only ever
// written on an actual mark (MSetNX), so the cache can under-report but never
// over-report a view. Stale entries for deleted posts are harmless: deleted
// posts never show up as feed candidates.
type ViewStatusCache struct {
	inner *redis.Client
}

// GetViewStatusCache connects to the redis instance configured through
// REDIS_HOST / REDIS_PORT / REDIS_PASSWD and pings it once to fail fast.
func GetViewStatusCache(ctx context.Context) (*ViewStatusCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return &ViewStatusCache{inner: client}, nil
}

// NewViewStatusCacheWithClient is for tests that bring their own client.
func NewViewStatusCacheWithClient(client *redis.Client) *ViewStatusCache {
	return &ViewStatusCache{inner: client}
}

func encodeViewKey(viewerID string, postID string) (string, error) {
	if strings.Contains(viewerID, viewKeyDelimiter) || strings.Contains(postID, viewKeyDelimiter) {
		return "", fmt.Errorf("invalid viewerID or postID: %s, %s", viewerID, postID)
	}
	return viewerID + viewKeyDelimiter + postID, nil
}

// MarkViewed flags the given posts as seen by the viewer. MSetNX keeps the
// first-view timestamp semantics intact on the redis side as well.
func (c *ViewStatusCache) MarkViewed(ctx context.Context, viewerID string, postIds []string) error {
	if len(postIds) == 0 {
		return nil
	}
	keyValues := []interface{}{}
	for _, pid := range postIds {
		key, err := encodeViewKey(viewerID, pid)
		if err != nil {
			return err
		}
		keyValues = append(keyValues, key, redisTrue)
	}
	return c.inner.MSetNX(ctx, keyValues...).Err()
}

// ViewedStatus returns, per candidate id, whether the cache knows the viewer
// has seen it. Missing keys come back false.
func (c *ViewStatusCache) ViewedStatus(ctx context.Context, viewerID string, postIds []string) (map[string]bool, error) {
	status := make(map[string]bool, len(postIds))
	if len(postIds) == 0 {
		return status, nil
	}

	keys := []string{}
	for _, pid := range postIds {
		key, err := encodeViewKey(viewerID, pid)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	res, err := c.inner.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for idx, v := range res {
		status[postIds[idx]] = v == redisTrue
	}
	return status, nil
}
