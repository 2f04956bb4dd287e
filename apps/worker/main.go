package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scholaris/internal/config"
	"github.com/smallbiznis/scholaris/internal/logger"
	"github.com/smallbiznis/scholaris/internal/migration"
	"github.com/smallbiznis/scholaris/internal/notifier"
	"github.com/smallbiznis/scholaris/internal/onboarding"
	"github.com/smallbiznis/scholaris/internal/onboarding/worker"
	"github.com/smallbiznis/scholaris/internal/pages"
	"github.com/smallbiznis/scholaris/internal/payment"
	"github.com/smallbiznis/scholaris/internal/plan"
	"github.com/smallbiznis/scholaris/internal/providers"
	"github.com/smallbiznis/scholaris/internal/subscription"
	"github.com/smallbiznis/scholaris/internal/tenant"
	"github.com/smallbiznis/scholaris/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		plan.Module,
		tenant.Module,
		payment.Module,
		subscription.Module,
		pages.Module,
		onboarding.Module,
		providers.Module,
		notifier.Module,

		worker.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
