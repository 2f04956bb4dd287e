// Package domain contains the public page model for tenant sites.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Page is a generated public page for a tenant site. Content is a loose
// JSON document whose shape depends on the template.
type Page struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID      `gorm:"not null;uniqueIndex:ux_pages_tenant_slug" json:"tenant_id"`
	Slug        string            `gorm:"type:text;not null;uniqueIndex:ux_pages_tenant_slug" json:"slug"`
	Title       string            `gorm:"type:text;not null" json:"title"`
	Template    string            `gorm:"type:text;not null" json:"template"`
	Content     datatypes.JSONMap `gorm:"type:jsonb" json:"content"`
	IsPublished bool              `gorm:"column:is_published;not null" json:"is_published"`
	SortOrder   int               `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Page) TableName() string { return "pages" }

// Service generates the default page set for a freshly provisioned tenant.
type Service interface {
	GenerateDefaults(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant) ([]Page, error)
}

var ErrDuplicatePage = errors.New("page already exists for tenant")
