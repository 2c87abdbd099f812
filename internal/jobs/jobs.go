// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"crowdfund/internal/logger"
	"crowdfund/internal/metrics"
)

const PairCodePurgeJob = "pair_code_purge"

// PairCodePurger deletes pair codes older than ttl.
type PairCodePurger interface {
	PurgeExpiredPairCodes(ctx context.Context, ttl time.Duration) (int64, error)
}

type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

func NewScheduler(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		log:  log,
	}
}

// AddPairCodePurge registers the pair code cleanup under spec, e.g. "@every 1m".
func (s *Scheduler) AddPairCodePurge(spec string, purger PairCodePurger, ttl time.Duration) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.PurgePairCodes(context.Background(), purger, ttl)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", PairCodePurgeJob, err)
	}
	return nil
}

// Add schedules run under name. Each run is counted and failures are logged.
func (s *Scheduler) Add(name, spec string, run func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		err := run(context.Background())
		metrics.RecordJobRun(name, err == nil)
		if err != nil {
			s.log.WithError(err).WithField("job", name).Error("job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// PurgePairCodes runs one purge pass. Failures are logged and counted.
func (s *Scheduler) PurgePairCodes(ctx context.Context, purger PairCodePurger, ttl time.Duration) {
	removed, err := purger.PurgeExpiredPairCodes(ctx, ttl)
	metrics.RecordJobRun(PairCodePurgeJob, err == nil)
	if err != nil {
		s.log.WithError(err).Error("pair code purge failed")
		return
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("purged expired pair codes")
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
