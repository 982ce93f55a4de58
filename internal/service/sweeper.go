package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/util"
)

// Sweeper runs the periodic blacklist and registry expiry sweeps on a fixed
// interval, independent of request traffic. It is owned by the process
// lifecycle: started on init, stopped on shutdown, so no timers leak in
// tests.
type Sweeper struct {
	registry  *SessionRegistry
	blacklist *BlacklistService
	interval  time.Duration
	log       *zap.SugaredLogger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewSweeper(registry *SessionRegistry, blacklist *BlacklistService, cfg *util.SweepConfig, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{
		registry:  registry,
		blacklist: blacklist,
		interval:  cfg.Interval,
		log:       log,
		stop:      make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}

func (s *Sweeper) sweep(ctx context.Context) {
	removedTokens, err := s.blacklist.SweepExpired(ctx, time.Now())
	if err != nil {
		s.log.Errorw("blacklist sweep failed", "error", err)
	}

	removedSessions, err := s.registry.SweepExpired(ctx)
	if err != nil {
		s.log.Errorw("registry sweep failed", "error", err)
	}

	if removedTokens > 0 || removedSessions > 0 {
		s.log.Infow("sweep completed", "blacklistRemoved", removedTokens, "sessionsRemoved", removedSessions)
	}
}
