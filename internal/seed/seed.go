// Package seed bootstraps the plan catalog on startup.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	"gorm.io/gorm"
)

type planSeed struct {
	Name         string
	Slug         string
	Description  string
	PriceMonthly float64
	PriceYearly  float64
	MaxStudents  int
	MaxStaff     int
}

var defaultPlans = []planSeed{
	{"Free", "free", "Get started with the basics at no cost.", 0, 0, 50, 5},
	{"Starter", "starter", "For small schools finding their footing.", 15000, 150000, 300, 25},
	{"Growth", "growth", "For growing schools that need more room.", 35000, 350000, 1000, 80},
	{"Professional", "professional", "Full capacity for established institutions.", 75000, 750000, 5000, 400},
}

// EnsurePlans seeds the subscription plan catalog. Idempotent: existing
// slugs are left untouched so price edits made in production survive
// restarts.
func EnsurePlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range defaultPlans {
			if err := ensurePlanTx(ctx, tx, node, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensurePlanTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, p planSeed) error {
	var existing plandomain.Plan
	err := tx.WithContext(ctx).Where("slug = ?", p.Slug).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	plan := plandomain.Plan{
		ID:           node.Generate(),
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		PriceMonthly: p.PriceMonthly,
		PriceYearly:  p.PriceYearly,
		Currency:     "NGN",
		MaxStudents:  p.MaxStudents,
		MaxStaff:     p.MaxStaff,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return tx.WithContext(ctx).Create(&plan).Error
}
