package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	authdomain "github.com/smallbiznis/scholaris/internal/auth/domain"
	"github.com/smallbiznis/scholaris/internal/auth/password"
	"github.com/smallbiznis/scholaris/internal/tenant/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type service struct {
	repo  domain.Repository
	genID *snowflake.Node
	log   *zap.Logger
}

// NewService builds the tenant provisioning service.
func NewService(repo domain.Repository, genID *snowflake.Node, log *zap.Logger) domain.Service {
	return &service{
		repo:  repo,
		genID: genID,
		log:   log.Named("tenant"),
	}
}

// Provision creates the owner user and the tenant record. Required-field
// checks are repeated here even though the orchestrator validates first; no
// component trusts its caller's validation alone.
func (s *service) Provision(ctx context.Context, db *gorm.DB, req domain.ProvisionRequest) (*domain.ProvisionResult, error) {
	name := strings.TrimSpace(req.SchoolName)
	if name == "" {
		return nil, domain.ErrMissingSchoolName
	}
	email := strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	if email == "" {
		return nil, domain.ErrMissingOwnerEmail
	}

	now := time.Now().UTC()

	// Owner password is random and unusable until email verification.
	placeholder, err := password.Random(24)
	if err != nil {
		return nil, err
	}
	hashed, err := password.Hash(placeholder)
	if err != nil {
		return nil, err
	}

	owner := &authdomain.User{
		ID:           s.genID.Generate(),
		Name:         name + " Owner",
		Email:        email,
		PasswordHash: &hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, db, owner); err != nil {
		return nil, err
	}

	tenantSlug, err := s.repo.UniqueSlug(ctx, db, slug.Make(name))
	if err != nil {
		return nil, err
	}

	token, err := verificationToken()
	if err != nil {
		return nil, err
	}

	trialEnd := now.AddDate(0, 0, domain.TrialPeriodDays)
	tenant := &domain.Tenant{
		ID:                s.genID.Generate(),
		Name:              name,
		Slug:              tenantSlug,
		Subdomain:         tenantSlug,
		OwnerID:           owner.ID,
		OwnerEmail:        email,
		Status:            domain.TenantStatusActive,
		SchoolType:        strings.TrimSpace(req.SchoolType),
		PrimaryColor:      defaulted(req.PrimaryColor, domain.DefaultPrimaryColor),
		SecondaryColor:    defaulted(req.SecondaryColor, domain.DefaultSecondaryColor),
		Timezone:          defaulted(req.Timezone, domain.DefaultTimezone),
		Country:           defaulted(req.Country, domain.DefaultCountry),
		Currency:          domain.DefaultCurrency,
		TrialEndsAt:       &trialEnd,
		OnboardingStep:    "provisioned",
		VerificationToken: token,
		Settings:          datatypes.JSONMap{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.CreateTenant(ctx, db, tenant); err != nil {
		return nil, err
	}

	s.log.Info("tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
	)

	return &domain.ProvisionResult{Tenant: tenant, Owner: owner}, nil
}

func (s *service) CreateMembership(ctx context.Context, db *gorm.DB, tenantID, userID snowflake.ID) error {
	member := domain.TenantUser{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		UserID:      userID,
		Role:        domain.RoleOwner,
		Permissions: datatypes.JSON(`["*"]`),
		CreatedAt:   time.Now().UTC(),
	}
	return s.repo.AddMember(ctx, db, member)
}

func (s *service) CompleteSetup(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{
			"setup_completed": true,
			"onboarding_step": "completed",
			"updated_at":      now,
		}).Error
}

func defaulted(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func verificationToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
