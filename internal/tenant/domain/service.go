package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/scholaris/internal/auth/domain"
	"gorm.io/gorm"
)

// ProvisionRequest carries the validated profile fields needed to create a
// tenant and its owner account.
type ProvisionRequest struct {
	SchoolName     string
	OwnerEmail     string
	Country        string
	SchoolType     string
	PrimaryColor   string
	SecondaryColor string
	Timezone       string
}

// ProvisionResult is the tenant aggregate created during onboarding.
type ProvisionResult struct {
	Tenant *Tenant
	Owner  *authdomain.User
}

// Service provisions tenants. All mutating methods take the db handle so the
// orchestrator can run them inside its transaction.
type Service interface {
	Provision(ctx context.Context, db *gorm.DB, req ProvisionRequest) (*ProvisionResult, error)
	CreateMembership(ctx context.Context, db *gorm.DB, tenantID, userID snowflake.ID) error
	CompleteSetup(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) error
}

// Repository persists tenants and memberships.
type Repository interface {
	UniqueSlug(ctx context.Context, db *gorm.DB, base string) (string, error)
	CreateTenant(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	CreateUser(ctx context.Context, db *gorm.DB, user *authdomain.User) error
	AddMember(ctx context.Context, db *gorm.DB, member TenantUser) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tenant, error)
	FindByVerificationToken(ctx context.Context, db *gorm.DB, token string) (*Tenant, error)
	MarkEmailVerified(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) error
}

var (
	ErrMissingSchoolName = errors.New("school name is required")
	ErrMissingOwnerEmail = errors.New("owner email is required")
	ErrTenantNotFound    = errors.New("tenant not found")
)
