package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scholaris/internal/pages/domain"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	dbpkg "github.com/smallbiznis/scholaris/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type service struct {
	genID *snowflake.Node
	log   *zap.Logger
}

// NewService builds the page generation service.
func NewService(genID *snowflake.Node, log *zap.Logger) domain.Service {
	return &service{genID: genID, log: log.Named("pages")}
}

// GenerateDefaults creates the standard public page set for a new tenant:
// a landing page, an about page, and student and parent registration pages.
// Content is seeded from the tenant's profile and remains editable later.
func (s *service) GenerateDefaults(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant) ([]domain.Page, error) {
	now := time.Now().UTC()
	defs := defaultPages(tenant)

	pages := make([]domain.Page, 0, len(defs))
	for i, def := range defs {
		page := domain.Page{
			ID:          s.genID.Generate(),
			TenantID:    tenant.ID,
			Slug:        def.slug,
			Title:       def.title,
			Template:    def.template,
			Content:     def.content,
			IsPublished: true,
			SortOrder:   i,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := db.WithContext(ctx).Create(&page).Error; err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePage, def.slug)
			}
			return nil, err
		}
		pages = append(pages, page)
	}

	s.log.Info("default pages generated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.Int("count", len(pages)),
	)
	return pages, nil
}

type pageDef struct {
	slug     string
	title    string
	template string
	content  datatypes.JSONMap
}

func defaultPages(tenant *tenantdomain.Tenant) []pageDef {
	name := tenant.Name
	schoolType := tenant.SchoolType
	if schoolType == "" {
		schoolType = "school"
	}

	return []pageDef{
		{
			slug:     "/",
			title:    name,
			template: "landing",
			content: datatypes.JSONMap{
				"hero": map[string]any{
					"headline":    fmt.Sprintf("Welcome to %s", name),
					"subheadline": fmt.Sprintf("A modern %s committed to excellence in education.", schoolType),
					"cta_label":   "Enroll Now",
					"cta_link":    "/register/student",
				},
				"features": []any{
					map[string]any{"title": "Quality Education", "description": "Experienced teachers and a curriculum built for results."},
					map[string]any{"title": "Safe Environment", "description": "A secure, welcoming campus where every learner belongs."},
					map[string]any{"title": "Modern Facilities", "description": "Learning spaces equipped for today's classroom."},
				},
				"stats": []any{
					map[string]any{"label": "Students", "value": "0"},
					map[string]any{"label": "Teachers", "value": "0"},
					map[string]any{"label": "Years of Excellence", "value": "1"},
				},
				"cta": map[string]any{
					"headline": fmt.Sprintf("Ready to join %s?", name),
					"label":    "Start Registration",
					"link":     "/register/student",
				},
				"colors": map[string]any{
					"primary":   tenant.PrimaryColor,
					"secondary": tenant.SecondaryColor,
				},
			},
		},
		{
			slug:     "about",
			title:    fmt.Sprintf("About %s", name),
			template: "about",
			content: datatypes.JSONMap{
				"introduction": fmt.Sprintf("%s is a %s dedicated to nurturing every learner.", name, schoolType),
				"mission":      "To provide quality education that prepares students for the future.",
				"vision":       "To be a leading institution recognized for academic excellence.",
				"values":       []any{"Excellence", "Integrity", "Community", "Growth"},
				"contact": map[string]any{
					"email": tenant.OwnerEmail,
				},
			},
		},
		{
			slug:     "register/student",
			title:    "Student Registration",
			template: "registration",
			content: datatypes.JSONMap{
				"audience":     "student",
				"headline":     "Student Registration",
				"description":  fmt.Sprintf("Register as a student at %s.", name),
				"submit_label": "Submit Application",
			},
		},
		{
			slug:     "register/parent",
			title:    "Parent Registration",
			template: "registration",
			content: datatypes.JSONMap{
				"audience":     "parent",
				"headline":     "Parent Registration",
				"description":  fmt.Sprintf("Register your child at %s.", name),
				"submit_label": "Submit Application",
			},
		},
	}
}
