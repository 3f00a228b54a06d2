package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatementCache keeps short-lived statement snapshots in redis. Cache misses
// and redis outages both fall through to a fresh computation; the cache never
// feeds the credit gate.
type StatementCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatementCache constructs a statement cache with the given TTL.
func NewStatementCache(client *redis.Client, ttl time.Duration) *StatementCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatementCache{client: client, ttl: ttl}
}

func statementKey(driverID int64) string {
	return fmt.Sprintf("ledger:statement:%d", driverID)
}

// Get returns the cached statement, or false on a miss or error.
func (c *StatementCache) Get(ctx context.Context, driverID int64) (Statement, bool) {
	if c == nil || c.client == nil {
		return Statement{}, false
	}
	raw, err := c.client.Get(ctx, statementKey(driverID)).Bytes()
	if err != nil {
		return Statement{}, false
	}
	var st Statement
	if err := json.Unmarshal(raw, &st); err != nil {
		return Statement{}, false
	}
	return st, true
}

// Set stores a statement snapshot. Failures are ignored.
func (c *StatementCache) Set(ctx context.Context, st Statement) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	c.client.Set(ctx, statementKey(st.DriverID), raw, c.ttl)
}

// Invalidate drops the snapshot for a driver. Called after any approval,
// rejection or penalty change that moves the derived balance.
func (c *StatementCache) Invalidate(ctx context.Context, driverID int64) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, statementKey(driverID))
}
