package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/scholaris/internal/auth/domain"
	"github.com/smallbiznis/scholaris/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

// Provide returns the tenant repository.
func Provide() domain.Repository {
	return &repo{}
}

// UniqueSlug resolves slug collisions by appending an incrementing numeric
// suffix: my-school, my-school-1, my-school-2, ...
func (r *repo) UniqueSlug(ctx context.Context, db *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 0; ; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		var count int64
		err := db.WithContext(ctx).
			Model(&domain.Tenant{}).
			Where("slug = ?", candidate).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
}

func (r *repo) CreateTenant(ctx context.Context, db *gorm.DB, tenant *domain.Tenant) error {
	return db.WithContext(ctx).Create(tenant).Error
}

func (r *repo) CreateUser(ctx context.Context, db *gorm.DB, user *authdomain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) AddMember(ctx context.Context, db *gorm.DB, member domain.TenantUser) error {
	return db.WithContext(ctx).Create(&member).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repo) FindByVerificationToken(ctx context.Context, db *gorm.DB, token string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := db.WithContext(ctx).First(&tenant, "verification_token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repo) MarkEmailVerified(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(&domain.Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{
			"email_verified_at": now,
			"updated_at":        now,
		}).Error
}
