// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/pool"
)

const (
	applyJobName = "zstate-apply"
	scrubJobFmt  = "zstate-scrub-%s"
)

// Scheduler re-applies a state document on an interval and triggers the
// scrubs the document asks for.
type Scheduler struct {
	engine   *Engine
	pools    *pool.Manager
	path     string
	interval time.Duration
	log      logger.Logger

	scheduler gocron.Scheduler
	mu        sync.RWMutex
	last      []*Report
	lastRun   time.Time
	lastErr   error
}

func NewScheduler(engine *Engine, pools *pool.Manager, path string, interval time.Duration, l logger.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New(errors.StateScheduleFailed, "interval must be positive")
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, errors.StateScheduleFailed)
	}
	if l == nil {
		l = engine.log
	}
	return &Scheduler{
		engine:    engine,
		pools:     pools,
		path:      path,
		interval:  interval,
		log:       l,
		scheduler: s,
	}, nil
}

// Start registers the apply job and one scrub job per pool with a scrub
// schedule, then starts the scheduler. The first apply runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { _, _ = s.RunOnce(ctx) }),
		gocron.WithName(applyJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.Wrap(err, errors.StateScheduleFailed).WithMetadata("job", applyJobName)
	}

	doc, err := LoadDocument(s.path)
	if err != nil {
		s.log.Warn("state document unreadable, scrubs not scheduled", "path", s.path, "err", err)
	} else {
		for _, p := range doc.Pools {
			if p.Scrub == "" || p.Ensure == EnsureAbsent {
				continue
			}
			if err := s.scheduleScrub(ctx, p.Name, p.Scrub); err != nil {
				return err
			}
		}
	}

	s.scheduler.Start()
	s.log.Info("scheduler started", "path", s.path, "interval", s.interval.String())
	return nil
}

func (s *Scheduler) scheduleScrub(ctx context.Context, name, expr string) error {
	jobName := fmt.Sprintf(scrubJobFmt, name)
	_, err := s.scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func() {
			res := s.pools.Scrub(ctx, name, pool.ScrubStart)
			if !res.Succeeded {
				s.log.Warn("scrub not started", "pool", name, "error", res.Error)
				return
			}
			s.log.Info("scrub started", "pool", name)
		}),
		gocron.WithName(jobName),
		gocron.WithTags(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Wrap(err, errors.StateScheduleFailed).WithMetadata("job", jobName)
	}
	s.log.Debug("scrub scheduled", "pool", name, "cron", expr)
	return nil
}

// RunOnce loads the document and applies it.
func (s *Scheduler) RunOnce(ctx context.Context) ([]*Report, error) {
	doc, err := LoadDocument(s.path)
	if err != nil {
		s.log.Error("state document unreadable", "path", s.path, "err", err)
		s.record(nil, err)
		return nil, err
	}
	reports := s.engine.Apply(ctx, doc)
	s.record(reports, nil)
	if !Converged(reports) {
		s.log.Warn("state not converged", "path", s.path)
	}
	return reports, nil
}

func (s *Scheduler) record(reports []*Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = reports
	s.lastErr = err
	s.lastRun = time.Now()
}

// Last returns the reports of the most recent run.
func (s *Scheduler) Last() ([]*Report, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastRun, s.lastErr
}

func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return errors.Wrap(err, errors.StateScheduleFailed)
	}
	return nil
}
