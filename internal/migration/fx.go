package migration

import (
	authdomain "github.com/smallbiznis/scholaris/internal/auth/domain"
	"github.com/smallbiznis/scholaris/internal/config"
	onboardingdomain "github.com/smallbiznis/scholaris/internal/onboarding/domain"
	pagesdomain "github.com/smallbiznis/scholaris/internal/pages/domain"
	paymentdomain "github.com/smallbiznis/scholaris/internal/payment/domain"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	"github.com/smallbiznis/scholaris/internal/seed"
	subscriptiondomain "github.com/smallbiznis/scholaris/internal/subscription/domain"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations target postgres; other dialects (local
		// sqlite, mysql) fall back to AutoMigrate.
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			err := conn.AutoMigrate(
				&authdomain.User{},
				&tenantdomain.Tenant{},
				&tenantdomain.TenantUser{},
				&plandomain.Plan{},
				&subscriptiondomain.Subscription{},
				&paymentdomain.Payment{},
				&pagesdomain.Page{},
				&onboardingdomain.OnboardingDraft{},
				&onboardingdomain.OnboardingJob{},
				&onboardingdomain.JobProgress{},
			)
			if err != nil {
				return err
			}
		}

		return seed.EnsurePlans(conn)
	}),
)
