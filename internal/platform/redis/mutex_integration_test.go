//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sglgb/pkg/platform/sentinel"
	"sglgb/pkg/testutil/containers"
)

type MutexSuite struct {
	suite.Suite
	client *Client
	mutex  *Mutex
}

func (s *MutexSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping integration tests in short mode")
	}
	rc := containers.GetManager().GetRedis(s.T())
	s.client = &Client{Client: rc.Client}
	s.mutex = NewMutex(s.client, 5*time.Second)
}

func (s *MutexSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func TestMutexSuite(t *testing.T) {
	suite.Run(t, new(MutexSuite))
}

func (s *MutexSuite) TestAcquireAndRelease() {
	ctx := context.Background()

	release, err := s.mutex.Acquire(ctx, "assessment:abc")
	s.Require().NoError(err)

	s.Run("a second holder is locked out", func() {
		_, err := s.mutex.Acquire(ctx, "assessment:abc")
		s.ErrorIs(err, sentinel.ErrLocked)
	})

	s.Run("other keys are independent", func() {
		other, err := s.mutex.Acquire(ctx, "assessment:def")
		s.Require().NoError(err)
		other()
	})

	s.Run("release reopens the key", func() {
		release()
		again, err := s.mutex.Acquire(ctx, "assessment:abc")
		s.Require().NoError(err)
		again()
	})
}

func (s *MutexSuite) TestTTLReclaimsAbandonedLock() {
	ctx := context.Background()
	short := NewMutex(s.client, 200*time.Millisecond)

	_, err := short.Acquire(ctx, "assessment:leaked")
	s.Require().NoError(err)

	_, err = short.Acquire(ctx, "assessment:leaked")
	s.ErrorIs(err, sentinel.ErrLocked)

	s.Eventually(func() bool {
		release, err := short.Acquire(ctx, "assessment:leaked")
		if err != nil {
			return false
		}
		release()
		return true
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *MutexSuite) TestReleaseIsHolderScoped() {
	ctx := context.Background()
	short := NewMutex(s.client, 300*time.Millisecond)

	releaseFirst, err := short.Acquire(ctx, "assessment:token")
	s.Require().NoError(err)

	// Wait for the TTL to expire so a second holder can take the key, then
	// make sure the stale release does not free the new holder's lock.
	s.Eventually(func() bool {
		_, err := short.Acquire(ctx, "assessment:token")
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)

	releaseFirst()
	_, err = short.Acquire(ctx, "assessment:token")
	s.ErrorIs(err, sentinel.ErrLocked)
}
