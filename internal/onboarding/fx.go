package onboarding

import (
	"github.com/smallbiznis/scholaris/internal/onboarding/repository"
	"github.com/smallbiznis/scholaris/internal/onboarding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("onboarding",
	fx.Provide(
		repository.Provide,
		service.NewService,
		service.NewProcessor,
	),
)
