//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"treasury/internal/ratelimit"
	"treasury/pkg/testutil/containers"
)

type RedisRateLimitStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *Store
}

func TestRedisRateLimitStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisRateLimitStoreSuite))
}

func (s *RedisRateLimitStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = New(s.redis.Client)
}

func (s *RedisRateLimitStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisRateLimitStoreSuite) TestSlidingWindow() {
	ctx := context.Background()
	limit := ratelimit.Limit{Requests: 2, Window: time.Minute}
	start := time.UnixMilli(time.Now().UnixMilli())

	res, err := s.store.Allow(ctx, "acct:write", limit, start)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(1, res.Remaining)
	s.Equal(start.Add(time.Minute), res.ResetAt)

	res, err = s.store.Allow(ctx, "acct:write", limit, start.Add(10*time.Second))
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Zero(res.Remaining)

	res, err = s.store.Allow(ctx, "acct:write", limit, start.Add(20*time.Second))
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(start.Add(time.Minute), res.ResetAt)

	res, err = s.store.Allow(ctx, "other:write", limit, start.Add(20*time.Second))
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = s.store.Allow(ctx, "acct:write", limit, start.Add(time.Minute))
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(start.Add(70*time.Second), res.ResetAt)
}
