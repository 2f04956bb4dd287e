package pages

import (
	"github.com/smallbiznis/scholaris/internal/pages/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pages",
	fx.Provide(service.NewService),
)
