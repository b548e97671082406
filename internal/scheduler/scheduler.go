// Package scheduler runs the periodic invitation expiry sweep.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/tradeplane/tradeplane/internal/clock"
	"github.com/tradeplane/tradeplane/internal/config"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
	Clock  clock.Clock
	Repo   invitationdomain.Repository
}

type Scheduler struct {
	log      *zap.Logger
	clock    clock.Clock
	repo     invitationdomain.Repository
	interval time.Duration
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Repo == nil {
		return nil, ErrInvalidConfig
	}
	interval := p.Config.Invite.SweepInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:    p.Clock,
		repo:     p.Repo,
		interval: interval,
	}, nil
}

// RunOnce marks every overdue PENDING invitation as EXPIRED.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	now := s.clock.Now()
	expired, err := s.repo.MarkExpired(ctx, now)
	if err != nil {
		s.log.Warn("invitation expiry sweep failed", zap.Error(err))
		return err
	}
	if expired > 0 {
		s.log.Info("invitation expiry sweep",
			zap.Int64("expired", expired),
			zap.Time("as_of", now),
		)
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && errors.Is(err, context.Canceled) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Module starts the sweep loop with the fx lifecycle.
var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
