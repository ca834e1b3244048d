package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// Default timing for autonomous cycles.
const (
	DefaultInitialDelay = 2 * time.Second
	DefaultInterval     = 6 * time.Second
)

// Cycler runs one cognition cycle.
type Cycler interface {
	Cycle(ctx context.Context) []state.Action
}

// Config sets the autonomous cadence.
type Config struct {
	InitialDelay time.Duration
	Interval     time.Duration
}

// DefaultConfig returns the standard cadence.
func DefaultConfig() Config {
	return Config{InitialDelay: DefaultInitialDelay, Interval: DefaultInterval}
}

// Scheduler drives cycles on a timer and on demand. At most one cycle runs
// at a time; a fire that lands while one is running is skipped.
type Scheduler struct {
	mind      Cycler
	cfg       Config
	logger    *zap.Logger
	onActions func([]state.Action)

	busy    atomic.Bool
	ran     atomic.Int64
	skipped atomic.Int64
}

// New creates a scheduler. onActions receives the actions of timer-driven
// cycles and may be nil.
func New(mind Cycler, cfg Config, logger *zap.Logger, onActions func([]state.Action)) *Scheduler {
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = 0
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{mind: mind, cfg: cfg, logger: logger, onActions: onActions}
}

// Trigger runs a cycle now. It reports false without running when another
// cycle is in progress.
func (s *Scheduler) Trigger(ctx context.Context) ([]state.Action, bool) {
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Debug("cycle skipped, previous still running")
		return nil, false
	}
	defer s.busy.Store(false)

	start := time.Now()
	actions := s.mind.Cycle(ctx)
	s.ran.Add(1)
	s.logger.Debug("cycle finished",
		zap.Int("actions", len(actions)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return actions, true
}

// Ran returns how many cycles the scheduler has run.
func (s *Scheduler) Ran() int64 { return s.ran.Load() }

// Skipped returns how many fires were dropped because a cycle was running.
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

// Run fires cycles until ctx is done. It always returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	delay := time.NewTimer(s.cfg.InitialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-delay.C:
	}
	s.fire(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	actions, ok := s.Trigger(ctx)
	if ok && s.onActions != nil && len(actions) > 0 {
		s.onActions(actions)
	}
}
