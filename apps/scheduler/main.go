package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scholaris/internal/config"
	"github.com/smallbiznis/scholaris/internal/logger"
	"github.com/smallbiznis/scholaris/internal/migration"
	"github.com/smallbiznis/scholaris/internal/onboarding"
	"github.com/smallbiznis/scholaris/internal/scheduler"
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

		onboarding.Module,
		scheduler.Module,
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
