package worker

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("onboarding.worker",
	fx.Provide(NewRunner),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, runner *Runner) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				runner.Start(ctx)
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
