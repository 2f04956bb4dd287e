// Package scheduler runs periodic maintenance over the onboarding tables:
// failing stale drafts left behind by crashed workers and pruning old
// completed drafts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/scholaris/internal/metrics"
	onboardingdomain "github.com/smallbiznis/scholaris/internal/onboarding/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependencies")

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   onboardingdomain.Repository
	Config Config `optional:"true"`
}

type Scheduler struct {
	db   *gorm.DB
	log  *zap.Logger
	cfg  Config
	repo onboardingdomain.Repository
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Repo == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:   p.DB,
		log:  p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:  p.Config.withDefaults(),
		repo: p.Repo,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err == nil {
		s.log.Debug("job finished", zap.String("job", name), zap.Duration("elapsed", elapsed))
		return nil
	}

	// deadline is a soft-timeout: log and let the next run catch up
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{"sweep_stale_onboarding", s.isJobEnabled("sweep_stale_onboarding"), func(ctx context.Context) error {
			return s.runJob(ctx, "sweep_stale_onboarding", 30*time.Second, s.SweepStaleJob)
		}},
		{"prune_completed_onboarding", s.isJobEnabled("prune_completed_onboarding"), func(ctx context.Context) error {
			return s.runJob(ctx, "prune_completed_onboarding", 30*time.Second, s.PruneCompletedJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs means all jobs run (monolith mode)
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// SweepStaleJob fails processing drafts not touched within StaleAfter.
func (s *Scheduler) SweepStaleJob(ctx context.Context) error {
	swept, err := s.repo.SweepStale(ctx, s.db, s.cfg.StaleAfter)
	if err != nil {
		return err
	}
	if swept > 0 {
		metrics.DraftsSwept.Add(float64(swept))
		s.log.Warn("stale drafts swept", zap.Int64("count", swept))
	}
	return nil
}

// PruneCompletedJob removes completed drafts older than PruneAfter.
func (s *Scheduler) PruneCompletedJob(ctx context.Context) error {
	pruned, err := s.repo.PruneCompleted(ctx, s.db, s.cfg.PruneAfter)
	if err != nil {
		return err
	}
	if pruned > 0 {
		metrics.DraftsPruned.Add(float64(pruned))
		s.log.Info("completed drafts pruned", zap.Int64("count", pruned))
	}
	return nil
}
