package seed

import (
	"testing"

	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	dbpkg "github.com/smallbiznis/scholaris/pkg/db"
	"gorm.io/gorm"
)

func newSeedTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(&plandomain.Plan{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestEnsurePlansSeedsCatalog(t *testing.T) {
	db := newSeedTest(t)

	if err := EnsurePlans(db); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var plans []plandomain.Plan
	if err := db.Order("price_monthly ASC").Find(&plans).Error; err != nil {
		t.Fatalf("failed to load plans: %v", err)
	}
	if len(plans) != 4 {
		t.Fatalf("expected 4 plans, got %d", len(plans))
	}

	free := plans[0]
	if free.Slug != "free" || !free.IsFree() {
		t.Fatalf("expected free plan first, got %+v", free)
	}
	for _, p := range plans {
		if !p.IsActive {
			t.Fatalf("expected plan %q active", p.Slug)
		}
		if p.Currency != "NGN" {
			t.Fatalf("expected NGN currency for %q, got %q", p.Slug, p.Currency)
		}
	}
}

func TestEnsurePlansIsIdempotent(t *testing.T) {
	db := newSeedTest(t)

	if err := EnsurePlans(db); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}

	// Price edits made after the first boot must survive a reseed.
	err := db.Model(&plandomain.Plan{}).
		Where("slug = ?", "starter").
		UpdateColumn("price_monthly", 20000).Error
	if err != nil {
		t.Fatalf("failed to edit plan: %v", err)
	}

	if err := EnsurePlans(db); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	var count int64
	if err := db.Model(&plandomain.Plan{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count plans: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 plans after reseed, got %d", count)
	}

	var starter plandomain.Plan
	if err := db.First(&starter, "slug = ?", "starter").Error; err != nil {
		t.Fatalf("failed to load starter plan: %v", err)
	}
	if starter.PriceMonthly != 20000 {
		t.Fatalf("expected edited price kept, got %f", starter.PriceMonthly)
	}
}

func TestEnsurePlansRequiresDB(t *testing.T) {
	if err := EnsurePlans(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}
