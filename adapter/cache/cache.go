package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finneas-io/edgar/adapter/bucket"
	"github.com/google/uuid"
)

var ErrMiss = errors.New("cache miss")

// Snapshot is one stored copy of a fetched document.
type Snapshot struct {
	Id        uuid.UUID `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	Body      []byte    `json:"body"`
}

// Cache stores snapshots in a bucket and treats them as stale after ttl.
// A ttl of zero never expires.
type Cache struct {
	bucket bucket.Bucket
	ttl    time.Duration
	now    func() time.Time
}

func New(b bucket.Bucket, ttl time.Duration) *Cache {
	return &Cache{bucket: b, ttl: ttl, now: time.Now}
}

func (c *Cache) Get(key string) (*Snapshot, error) {
	data, err := c.bucket.GetObject(key)
	if err != nil {
		if errors.Is(err, bucket.ErrNotFound) {
			return nil, ErrMiss
		}
		return nil, err
	}

	// a corrupt snapshot is dropped so the next Put starts clean
	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		if delErr := c.bucket.DeleteObject(key); delErr != nil {
			return nil, fmt.Errorf("corrupt snapshot %s: %w", key, delErr)
		}
		return nil, fmt.Errorf("%w: corrupt snapshot %s: %s", ErrMiss, key, err)
	}
	if c.ttl > 0 && c.now().Sub(snap.FetchedAt) > c.ttl {
		return nil, ErrMiss
	}
	return snap, nil
}

func (c *Cache) Put(key string, body []byte) (*Snapshot, error) {
	snap := &Snapshot{Id: uuid.New(), FetchedAt: c.now().UTC(), Body: body}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	if err := c.bucket.PutObject(key, data); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Cache) Invalidate(key string) error {
	return c.bucket.DeleteObject(key)
}
