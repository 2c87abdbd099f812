package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/logger"
)

type stubPurger struct {
	calls   atomic.Int32
	ttl     time.Duration
	removed int64
	err     error
}

func (p *stubPurger) PurgeExpiredPairCodes(_ context.Context, ttl time.Duration) (int64, error) {
	p.calls.Add(1)
	p.ttl = ttl
	return p.removed, p.err
}

func TestPurgePairCodesLogsOutcome(t *testing.T) {
	base, hook := logtest.NewNullLogger()
	s := NewScheduler(logger.New(base, "jobs"))

	p := &stubPurger{removed: 3}
	s.PurgePairCodes(context.Background(), p, 15*time.Minute)
	assert.Equal(t, 15*time.Minute, p.ttl)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, int64(3), hook.LastEntry().Data["removed"])

	hook.Reset()
	p.removed = 0
	s.PurgePairCodes(context.Background(), p, time.Minute)
	assert.Empty(t, hook.AllEntries())

	p.err = errors.New("db locked")
	s.PurgePairCodes(context.Background(), p, time.Minute)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestAddPairCodePurgeRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(logger.Discard())
	err := s.AddPairCodePurge("every now and then", &stubPurger{}, time.Minute)
	require.Error(t, err)
}

func TestSchedulerRunsPurge(t *testing.T) {
	s := NewScheduler(logger.Discard())
	p := &stubPurger{}
	require.NoError(t, s.AddPairCodePurge("@every 1s", p, time.Minute))

	s.Start()
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return p.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestAddRunsNamedJob(t *testing.T) {
	base, hook := logtest.NewNullLogger()
	s := NewScheduler(logger.New(base, "jobs"))
	var runs atomic.Int32
	require.NoError(t, s.Add("cleanup", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	}))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	s.Stop(context.Background())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "cleanup", entry.Data["job"])
}
