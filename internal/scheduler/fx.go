package scheduler

import (
	"context"
	"os"
	"strings"

	"github.com/smallbiznis/scholaris/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(
		NewConfigFromEnv,
		New,
	),
	fx.Invoke(registerHooks),
)

// NewConfigFromEnv maps application configuration onto scheduler knobs.
func NewConfigFromEnv(cfg config.Config) Config {
	var enabled []string
	if raw := strings.TrimSpace(os.Getenv("SCHEDULER_ENABLED_JOBS")); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				enabled = append(enabled, name)
			}
		}
	}
	return Config{
		StaleAfter:  cfg.Onboarding.StaleAfter,
		PruneAfter:  cfg.Onboarding.PruneAfter,
		EnabledJobs: enabled,
	}.withDefaults()
}

func registerHooks(lc fx.Lifecycle, s *Scheduler) {
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
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}
