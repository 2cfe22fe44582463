// Package sleep drives §4.9's maintenance triggers: a light sleep after
// every LightEveryNewNodes ingested nodes, and a deep sleep once
// DeepInterval has elapsed since the last one.
package sleep

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/artemMprokhorov/hippograph-pro/application/services"
	"github.com/artemMprokhorov/hippograph-pro/domain/config"
)

// sleepRunner is the slice of SleepService the scheduler depends on,
// narrowed so tests can substitute a lightweight fake instead of the
// full store/graph/ann/extractor fixture SleepService needs.
type sleepRunner interface {
	Run(ctx context.Context, mode services.SleepMode, dryRun bool) (services.SleepReport, error)
}

// Scheduler triggers SleepService.Run on the cadence of §4.9: node-count
// for light sleep, wall-clock interval for deep sleep. Overlapping
// triggers of the same mode collapse into a single run via singleflight,
// which is keyed by mode; a light run and a deep run do not collapse.
type Scheduler struct {
	runner sleepRunner
	cfg    *config.DomainConfig
	logger *zap.Logger

	group singleflight.Group

	mu                   sync.Mutex
	nodesSinceLightSleep int
	lastDeepSleepAt      time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewScheduler constructs a scheduler. lastDeepSleepAt seeds the
// deep-sleep interval check for a process restarting mid-cycle.
func NewScheduler(runner sleepRunner, cfg *config.DomainConfig, logger *zap.Logger, lastDeepSleepAt time.Time) *Scheduler {
	return &Scheduler{
		runner:          runner,
		cfg:             cfg,
		logger:          logger,
		lastDeepSleepAt: lastDeepSleepAt,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// NotifyNodeAdded should be called once per successful ingest. Once the
// threshold is crossed it fires a light sleep in the background and
// resets the counter, regardless of that run's outcome.
func (s *Scheduler) NotifyNodeAdded(ctx context.Context) {
	s.mu.Lock()
	s.nodesSinceLightSleep++
	due := s.nodesSinceLightSleep >= s.cfg.Sleep.LightEveryNewNodes
	if due {
		s.nodesSinceLightSleep = 0
	}
	s.mu.Unlock()

	if !due {
		return
	}
	go func() {
		if _, err := s.TriggerNow(ctx, services.SleepLight, false); err != nil {
			s.logger.Error("scheduled light sleep failed", zap.Error(err))
		}
	}()
}

// Start launches the periodic checker that triggers deep sleep once
// DeepInterval has elapsed. It runs until Stop is called.
func (s *Scheduler) Start(ctx context.Context, tickInterval time.Duration) {
	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.checkDeepSleepDue(ctx)
			}
		}
	}()
}

func (s *Scheduler) checkDeepSleepDue(ctx context.Context) {
	s.mu.Lock()
	due := time.Since(s.lastDeepSleepAt) >= s.cfg.Sleep.DeepInterval
	s.mu.Unlock()
	if !due {
		return
	}
	report, err := s.TriggerNow(ctx, services.SleepDeep, false)
	if err != nil {
		s.logger.Error("scheduled deep sleep failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.lastDeepSleepAt = time.Now()
	s.mu.Unlock()
	s.logger.Info("deep sleep completed", zap.Int("steps", len(report.Steps)))
}

// Stop signals the periodic checker to exit and returns without waiting
// for it. Safe to call more than once or when Start was never called.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// SetConfig swaps the cadence parameters (Sleep.LightEveryNewNodes,
// Sleep.DeepInterval) a running scheduler checks against, letting a
// config-file reload take effect without restarting sleepd. It does not
// reach the rest of cfg.DomainConfig() (blend weights, BM25 params,
// and so on stay fixed at construction time) since those are consulted
// by SleepService directly, not the scheduler.
func (s *Scheduler) SetConfig(cfg *config.DomainConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// TriggerNow runs a sleep cycle immediately, as the Maintenance API's
// run_sleep() and the CLI's `sleep` command do. Concurrent calls for the
// same mode collapse into one underlying run via singleflight, so a
// manual trigger racing an automatic one never runs the cycle twice.
func (s *Scheduler) TriggerNow(ctx context.Context, mode services.SleepMode, dryRun bool) (services.SleepReport, error) {
	key := string(mode)
	if dryRun {
		key += ":dry-run"
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.runner.Run(ctx, mode, dryRun)
	})
	report, _ := v.(services.SleepReport)
	return report, err
}

var _ sleepRunner = (*services.SleepService)(nil)
