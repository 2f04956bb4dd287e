package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/scholaris/internal/config"
	"github.com/smallbiznis/scholaris/internal/notifier"
	onboardingdomain "github.com/smallbiznis/scholaris/internal/onboarding/domain"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	"github.com/smallbiznis/scholaris/internal/ratelimit"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	onboardingSvc onboardingdomain.Service
	planRepo      plandomain.Repository
	tenantRepo    tenantdomain.Repository
	notifier      *notifier.Notifier
	limiter       ratelimit.Limiter
	log           *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	OnboardingSvc onboardingdomain.Service
	PlanRepo      plandomain.Repository
	TenantRepo    tenantdomain.Repository
	Notifier      *notifier.Notifier
	Limiter       ratelimit.Limiter
	Log           *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		onboardingSvc: p.OnboardingSvc,
		planRepo:      p.PlanRepo,
		tenantRepo:    p.TenantRepo,
		notifier:      p.Notifier,
		limiter:       p.Limiter,
		log:           p.Log.Named("server"),
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/plans", s.ListPlans)

	// -------- Onboarding wizard --------
	onboarding := api.Group("/onboarding", s.SessionRequired())
	{
		onboarding.GET("", s.GetOnboarding)
		onboarding.POST("/save", s.SaveOnboardingStep)
		onboarding.POST("/submit", s.SubmitRateLimit(), s.SubmitOnboarding)
		onboarding.GET("/status/:job_id", s.StatusRateLimit(), s.GetOnboardingStatus)
	}

	s.engine.GET("/verify-email", s.VerifyEmail)
}
