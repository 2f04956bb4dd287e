package notifier

import (
	onboardingservice "github.com/smallbiznis/scholaris/internal/onboarding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notifier",
	fx.Provide(
		New,
		func(n *Notifier) onboardingservice.Notifier { return n },
	),
)
