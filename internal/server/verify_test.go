package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scholaris/internal/config"
	"github.com/smallbiznis/scholaris/internal/notifier"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	tenantrepository "github.com/smallbiznis/scholaris/internal/tenant/repository"
	dbpkg "github.com/smallbiznis/scholaris/pkg/db"
	"go.uber.org/zap"
)

type noopEmail struct{}

func (noopEmail) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	_ = ctx
	_ = to
	_ = subject
	_ = htmlBody
	return nil
}

func newVerifyTestServer(t *testing.T) (*gin.Engine, *notifier.Notifier, *tenantdomain.Tenant) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(&tenantdomain.Tenant{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}

	cfg := config.Config{
		AppURL: "https://app.scholaris.test",
		Onboarding: config.OnboardingConfig{
			VerifySecret:  "test-secret",
			VerifyLinkTTL: 24 * time.Hour,
		},
	}
	n := notifier.New(cfg, noopEmail{}, zap.NewNop())

	tenant := &tenantdomain.Tenant{
		ID:                node.Generate(),
		Name:              "Sunrise Academy",
		Slug:              "sunrise-academy",
		Subdomain:         "sunrise-academy",
		OwnerID:           node.Generate(),
		OwnerEmail:        "owner@sunrise.test",
		Status:            tenantdomain.TenantStatusActive,
		Timezone:          "Africa/Lagos",
		Country:           "NG",
		Currency:          "NGN",
		VerificationToken: "token-abc",
	}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	srv := &Server{
		cfg:        cfg,
		db:         db,
		tenantRepo: tenantrepository.Provide(),
		notifier:   n,
		log:        zap.NewNop(),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/verify-email", srv.VerifyEmail)
	return router, n, tenant
}

func signedVerifyPath(t *testing.T, n *notifier.Notifier, token string) string {
	t.Helper()
	link := n.VerificationURL(token, time.Now().Add(time.Hour))
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("failed to parse link: %v", err)
	}
	return "/verify-email?" + parsed.RawQuery
}

func TestVerifyEmailMarksTenantVerified(t *testing.T) {
	router, n, tenant := newVerifyTestServer(t)

	req := httptest.NewRequest(http.MethodGet, signedVerifyPath(t, n, tenant.VerificationToken), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "verified" {
		t.Fatalf("expected verified, got %q", body["status"])
	}

	// A second click is idempotent.
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, signedVerifyPath(t, n, tenant.VerificationToken), nil))
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "already_verified" {
		t.Fatalf("expected already_verified, got %q", body["status"])
	}
}

func TestVerifyEmailRejectsBadSignature(t *testing.T) {
	router, n, tenant := newVerifyTestServer(t)

	link := n.VerificationURL(tenant.VerificationToken, time.Now().Add(time.Hour))
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("failed to parse link: %v", err)
	}
	q := parsed.Query()
	q.Set("sig", "deadbeef")

	req := httptest.NewRequest(http.MethodGet, "/verify-email?"+q.Encode(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestVerifyEmailRejectsMissingParams(t *testing.T) {
	router, _, _ := newVerifyTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/verify-email?token=abc", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	router, n, _ := newVerifyTestServer(t)

	req := httptest.NewRequest(http.MethodGet, signedVerifyPath(t, n, "token-unknown"), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
