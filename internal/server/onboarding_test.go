package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scholaris/internal/config"
	onboardingdomain "github.com/smallbiznis/scholaris/internal/onboarding/domain"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeOnboardingService struct {
	draft       *onboardingdomain.OnboardingDraft
	saveErr     error
	submit      *onboardingdomain.SubmitResult
	submitErr   error
	submitCalls int
	status      *onboardingdomain.StatusResult
	statusErr   error
	lastSession string
	lastStep    string
}

func (f *fakeOnboardingService) Get(ctx context.Context, sessionID string) (*onboardingdomain.OnboardingDraft, error) {
	_ = ctx
	f.lastSession = sessionID
	return f.draft, nil
}

func (f *fakeOnboardingService) SaveStep(ctx context.Context, sessionID, step string, payload map[string]any) (*onboardingdomain.OnboardingDraft, error) {
	_ = ctx
	_ = payload
	f.lastSession = sessionID
	f.lastStep = step
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return f.draft, nil
}

func (f *fakeOnboardingService) Submit(ctx context.Context, sessionID string) (*onboardingdomain.SubmitResult, error) {
	_ = ctx
	f.lastSession = sessionID
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submit, nil
}

func (f *fakeOnboardingService) Status(ctx context.Context, sessionID string, jobID snowflake.ID) (*onboardingdomain.StatusResult, error) {
	_ = ctx
	_ = jobID
	f.lastSession = sessionID
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

type fakePlanRepo struct {
	plans []plandomain.Plan
}

func (f *fakePlanRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*plandomain.Plan, error) {
	_ = ctx
	_ = db
	for i := range f.plans {
		if f.plans[i].ID == id {
			return &f.plans[i], nil
		}
	}
	return nil, plandomain.ErrNotFound
}

func (f *fakePlanRepo) ListActive(ctx context.Context, db *gorm.DB) ([]plandomain.Plan, error) {
	_ = ctx
	_ = db
	return f.plans, nil
}

type fakeLimiter struct {
	allowed bool
	err     error
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	_ = ctx
	_ = key
	_ = limit
	_ = window
	return f.allowed, f.err
}

func newTestServer(svc *fakeOnboardingService, limiter *fakeLimiter) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	srv := &Server{
		cfg:           config.Config{Onboarding: config.OnboardingConfig{SubmitLimit: 3, SubmitWindow: 10 * time.Minute, StatusLimit: 60, StatusWindow: time.Minute}},
		onboardingSvc: svc,
		planRepo:      &fakePlanRepo{plans: []plandomain.Plan{{ID: snowflake.ID(7), Name: "Free", Slug: "free", Currency: "NGN", IsActive: true}}},
		limiter:       limiter,
		log:           zap.NewNop(),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	group := router.Group("/api/onboarding", srv.SessionRequired())
	group.GET("", srv.GetOnboarding)
	group.POST("/save", srv.SaveOnboardingStep)
	group.POST("/submit", srv.SubmitRateLimit(), srv.SubmitOnboarding)
	group.GET("/status/:job_id", srv.StatusRateLimit(), srv.GetOnboardingStatus)
	return srv, router
}

func emptyDraft() *onboardingdomain.OnboardingDraft {
	return &onboardingdomain.OnboardingDraft{
		Status:  onboardingdomain.DraftStatusDraft,
		Profile: datatypes.JSONMap{},
		Plan:    datatypes.JSONMap{},
		Payment: datatypes.JSONMap{},
	}
}

func TestSessionMintedWhenAbsent(t *testing.T) {
	svc := &fakeOnboardingService{draft: emptyDraft()}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/onboarding", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	minted := resp.Header().Get("X-Onboarding-Session")
	if minted == "" {
		t.Fatal("expected minted session header")
	}
	if svc.lastSession != minted {
		t.Fatalf("expected service to see minted session, got %q", svc.lastSession)
	}
	if !strings.Contains(resp.Header().Get("Set-Cookie"), "onboarding_session=") {
		t.Fatalf("expected session cookie, got %q", resp.Header().Get("Set-Cookie"))
	}
}

func TestSessionHeaderIsReused(t *testing.T) {
	svc := &fakeOnboardingService{draft: emptyDraft()}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/onboarding", nil)
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if svc.lastSession != "session-a" {
		t.Fatalf("expected session-a, got %q", svc.lastSession)
	}
}

func TestGetOnboardingIncludesPlanCatalog(t *testing.T) {
	svc := &fakeOnboardingService{draft: emptyDraft()}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/onboarding", nil)
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Draft draftResponse     `json:"draft"`
		Plans []plandomain.Plan `json:"plans"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Draft.Status != onboardingdomain.DraftStatusDraft {
		t.Fatalf("expected draft status, got %q", body.Draft.Status)
	}
	if len(body.Plans) != 1 || body.Plans[0].Slug != "free" {
		t.Fatalf("unexpected plans %v", body.Plans)
	}
}

func TestSaveStepValidationErrorReturns400(t *testing.T) {
	svc := &fakeOnboardingService{
		saveErr: onboardingdomain.ValidationErrors{
			{Field: "owner_email", Code: "invalid", Message: "Owner email is not a valid email address"},
		},
	}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/save", strings.NewReader(`{"step":"profile","data":{"owner_email":"nope"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.lastStep != "profile" {
		t.Fatalf("expected profile step, got %q", svc.lastStep)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", body.Error.Type)
	}
	if len(body.Error.Errors) != 1 || body.Error.Errors[0].Field != "owner_email" {
		t.Fatalf("unexpected errors %v", body.Error.Errors)
	}
}

func TestSubmitReturnsAccepted(t *testing.T) {
	svc := &fakeOnboardingService{
		submit: &onboardingdomain.SubmitResult{JobID: snowflake.ID(42), Status: onboardingdomain.DraftStatusProcessing},
	}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/submit", nil)
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}

	var body onboardingdomain.SubmitResult
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.JobID != snowflake.ID(42) {
		t.Fatalf("expected job 42, got %s", body.JobID)
	}
}

func TestSubmitValidationFailureReturns422(t *testing.T) {
	svc := &fakeOnboardingService{
		submitErr: onboardingdomain.ValidationErrors{
			{Field: "paystack_reference", Code: "required", Message: "Payment reference is required for paid plans"},
		},
	}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/submit", nil)
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", body.Error.Type)
	}
	if len(body.Error.Errors) != 1 || body.Error.Errors[0].Field != "paystack_reference" {
		t.Fatalf("unexpected errors %v", body.Error.Errors)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	svc := &fakeOnboardingService{submit: &onboardingdomain.SubmitResult{}}
	_, router := newTestServer(svc, &fakeLimiter{allowed: false})

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/submit", nil)
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if svc.submitCalls != 0 {
		t.Fatalf("expected submit not called, got %d calls", svc.submitCalls)
	}
}

func TestSubmitFailsOpenWhenLimiterErrors(t *testing.T) {
	svc := &fakeOnboardingService{
		submit: &onboardingdomain.SubmitResult{JobID: snowflake.ID(1), Status: onboardingdomain.DraftStatusProcessing},
	}
	_, router := newTestServer(svc, &fakeLimiter{allowed: false, err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/submit", nil)
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected fail-open 202, got %d", resp.Code)
	}
	if svc.submitCalls != 1 {
		t.Fatalf("expected 1 submit call, got %d", svc.submitCalls)
	}
}

func TestStatusForbiddenForForeignSession(t *testing.T) {
	svc := &fakeOnboardingService{statusErr: onboardingdomain.ErrForbidden}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/onboarding/status/42", nil)
	req.Header.Set("X-Onboarding-Session", "session-b")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestStatusUnknownJobReturns404(t *testing.T) {
	svc := &fakeOnboardingService{statusErr: onboardingdomain.ErrJobNotFound}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/onboarding/status/42", nil)
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStatusMalformedJobIDReturns400(t *testing.T) {
	svc := &fakeOnboardingService{status: &onboardingdomain.StatusResult{}}
	_, router := newTestServer(svc, &fakeLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/onboarding/status/not-a-job", nil)
	req.Header.Set("X-Onboarding-Session", "session-a")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
