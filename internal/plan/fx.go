package plan

import (
	"github.com/smallbiznis/scholaris/internal/plan/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("plan",
	fx.Provide(repository.Provide),
)
