// Package rediscache is an alternative MessageCache backend for hosts that
// run more than one CEC-facing process against the same bus and want a
// shared, cross-process cache instead of the default in-memory map.
package rediscache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shimmeringbee/cec"
)

const keyPrefix = "cec:msgcache:"

// Cache is a cec.MessageCache backed by Redis. Each (source, opcode) pair
// is stored as a hash with the frame's raw parameter bytes plus the unix
// nanosecond timestamp it was written, so Dump can report an age without a
// separate metadata store.
type Cache struct {
	client *redis.Client
	ctx    context.Context
}

// New wraps an existing Redis client. The caller owns the client's
// lifecycle (Close, connection pool sizing, TLS, and so on).
func New(client *redis.Client) *Cache {
	return &Cache{client: client, ctx: context.Background()}
}

func key(source cec.LogicalAddress, opcode cec.Opcode) string {
	return fmt.Sprintf("%s%d:%d", keyPrefix, source, opcode)
}

func parseKey(redisKey string) (cec.LogicalAddress, cec.Opcode, bool) {
	var source, opcode uint8
	if _, err := fmt.Sscanf(redisKey, keyPrefix+"%d:%d", &source, &opcode); err != nil {
		return 0, 0, false
	}
	return cec.LogicalAddress(source), cec.Opcode(opcode), true
}

// Put stores frame under (source, opcode). A write failure is dropped
// without being reported — the cache is an optimization, never a dependency
// the action can fail on.
func (c *Cache) Put(source cec.LogicalAddress, opcode cec.Opcode, frame cec.Frame) {
	c.client.HSet(c.ctx, key(source, opcode), map[string]interface{}{
		"params":    frame.Params,
		"stored_at": strconv.FormatInt(time.Now().UnixNano(), 10),
	})
}

// Get looks up the most recently stored frame for (source, opcode). Any
// Redis-side failure, including the server being unreachable, is reported
// as a cache miss so the caller falls through to sending a fresh request,
// exactly as an empty cache would.
func (c *Cache) Get(source cec.LogicalAddress, opcode cec.Opcode) (cec.Frame, bool) {
	params, err := c.client.HGet(c.ctx, key(source, opcode), "params").Bytes()
	if err != nil {
		// Covers both redis.Nil (no such key) and any connectivity error —
		// both are reported to the caller as an ordinary cache miss.
		return cec.Frame{}, false
	}

	return cec.Frame{Opcode: opcode, Source: source, Params: params}, true
}

// scanKeys walks the keyspace matching pattern using cursor-based SCAN
// rather than KEYS, so a large keyspace never blocks the server the way a
// single KEYS call would.
func (c *Cache) scanKeys(pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		batch, next, err := c.client.Scan(c.ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}

		keys = append(keys, batch...)
		cursor = next

		if cursor == 0 {
			return keys, nil
		}
	}
}

// Dump implements cec.CacheInspector by scanning every key this Cache owns.
// Used only by the CLI's diagnostic "cache dump" command, never on the
// action's hot path.
func (c *Cache) Dump() []cec.CacheEntry {
	keys, err := c.scanKeys(keyPrefix + "*")
	if err != nil {
		return nil
	}

	now := time.Now()
	entries := make([]cec.CacheEntry, 0, len(keys))

	for _, redisKey := range keys {
		source, opcode, ok := parseKey(redisKey)
		if !ok {
			continue
		}

		storedAtRaw, err := c.client.HGet(c.ctx, redisKey, "stored_at").Result()
		if err != nil {
			continue
		}

		storedAtNanos, err := strconv.ParseInt(storedAtRaw, 10, 64)
		if err != nil {
			continue
		}

		entries = append(entries, cec.CacheEntry{
			Source: source,
			Opcode: opcode,
			Age:    now.Sub(time.Unix(0, storedAtNanos)),
		})
	}

	return entries
}
