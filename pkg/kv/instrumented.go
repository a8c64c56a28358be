package kv

import (
	"context"
	"errors"
	"time"

	"chronofeed/pkg/metrics"
)

// Instrumented records latency and errors of every call on the wrapped
// store. ErrNotFound is a normal outcome and is not counted as an error.
type Instrumented struct {
	next Store
}

func NewInstrumented(next Store) *Instrumented {
	return &Instrumented{next: next}
}

func observe(op string, start time.Time, err error) {
	metrics.KVOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, context.Canceled) {
		metrics.KVOperationErrors.WithLabelValues(op).Inc()
	}
}

func (s *Instrumented) Get(ctx context.Context, key string) (b []byte, err error) {
	defer func(start time.Time) { observe("get", start, err) }(time.Now())
	return s.next.Get(ctx, key)
}

func (s *Instrumented) MGet(ctx context.Context, keys ...string) (vals [][]byte, err error) {
	defer func(start time.Time) { observe("mget", start, err) }(time.Now())
	return s.next.MGet(ctx, keys...)
}

func (s *Instrumented) Set(ctx context.Context, key string, value []byte) (err error) {
	defer func(start time.Time) { observe("set", start, err) }(time.Now())
	return s.next.Set(ctx, key, value)
}

func (s *Instrumented) SetNX(ctx context.Context, key string, value []byte) (ok bool, err error) {
	defer func(start time.Time) { observe("setnx", start, err) }(time.Now())
	return s.next.SetNX(ctx, key, value)
}

func (s *Instrumented) Del(ctx context.Context, keys ...string) (err error) {
	defer func(start time.Time) { observe("del", start, err) }(time.Now())
	return s.next.Del(ctx, keys...)
}

func (s *Instrumented) SAdd(ctx context.Context, key string, members ...string) (err error) {
	defer func(start time.Time) { observe("sadd", start, err) }(time.Now())
	return s.next.SAdd(ctx, key, members...)
}

func (s *Instrumented) SRem(ctx context.Context, key string, members ...string) (err error) {
	defer func(start time.Time) { observe("srem", start, err) }(time.Now())
	return s.next.SRem(ctx, key, members...)
}

func (s *Instrumented) SMembers(ctx context.Context, key string) (members []string, err error) {
	defer func(start time.Time) { observe("smembers", start, err) }(time.Now())
	return s.next.SMembers(ctx, key)
}

func (s *Instrumented) SIsMember(ctx context.Context, key, member string) (ok bool, err error) {
	defer func(start time.Time) { observe("sismember", start, err) }(time.Now())
	return s.next.SIsMember(ctx, key, member)
}

func (s *Instrumented) SCard(ctx context.Context, key string) (n int64, err error) {
	defer func(start time.Time) { observe("scard", start, err) }(time.Now())
	return s.next.SCard(ctx, key)
}

func (s *Instrumented) ZAdd(ctx context.Context, key string, score float64, member string) (err error) {
	defer func(start time.Time) { observe("zadd", start, err) }(time.Now())
	return s.next.ZAdd(ctx, key, score, member)
}

func (s *Instrumented) ZRem(ctx context.Context, key string, members ...string) (err error) {
	defer func(start time.Time) { observe("zrem", start, err) }(time.Now())
	return s.next.ZRem(ctx, key, members...)
}

func (s *Instrumented) ZRange(ctx context.Context, key string, start, stop int64) (members []string, err error) {
	defer func(begin time.Time) { observe("zrange", begin, err) }(time.Now())
	return s.next.ZRange(ctx, key, start, stop)
}

func (s *Instrumented) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) (members []ScoredMember, err error) {
	defer func(begin time.Time) { observe("zrevrange", begin, err) }(time.Now())
	return s.next.ZRevRangeWithScores(ctx, key, start, stop)
}

func (s *Instrumented) ZCard(ctx context.Context, key string) (n int64, err error) {
	defer func(start time.Time) { observe("zcard", start, err) }(time.Now())
	return s.next.ZCard(ctx, key)
}

func (s *Instrumented) ZCards(ctx context.Context, keys ...string) (counts []int64, err error) {
	defer func(start time.Time) { observe("zcards", start, err) }(time.Now())
	return s.next.ZCards(ctx, keys...)
}

func (s *Instrumented) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("ping", start, err) }(time.Now())
	return s.next.Ping(ctx)
}
