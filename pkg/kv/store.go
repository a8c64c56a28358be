// Package kv defines the typed key-value contract the social service is
// built on: scalars, unordered sets and score-ordered sets, addressed by
// string keys. Backends exist for Redis and for a relational database.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

type ScoredMember struct {
	Member string
	Score  float64
}

// Store ordering follows Redis: members with equal scores sort by member
// ascending in ZRange and descending in ZRevRangeWithScores. A negative
// index counts from the end, so stop = -1 means the last member.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one entry per key; absent keys yield nil.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	// Del removes keys of any kind.
	Del(ctx context.Context, keys ...string) error

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SCard(ctx context.Context, key string) (int64, error)

	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	ZCard(ctx context.Context, key string) (int64, error)
	// ZCards returns the cardinality of each key in order.
	ZCards(ctx context.Context, keys ...string) ([]int64, error)

	Ping(ctx context.Context) error
}

// resolveRange converts Redis-style inclusive indices into an offset and a
// count for a collection of n elements. ok is false for an empty range.
func resolveRange(start, stop, n int64) (offset, count int64, ok bool) {
	if start < 0 {
		start = n + start
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop - start + 1, true
}
