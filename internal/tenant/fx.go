package tenant

import (
	"github.com/smallbiznis/scholaris/internal/tenant/repository"
	"github.com/smallbiznis/scholaris/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
