package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studioops/billing/internal/config"
	documentdomain "github.com/studioops/billing/internal/document/domain"
	"github.com/studioops/billing/internal/observability/logger"
	"github.com/studioops/billing/internal/observability/tracing"
	paymentdomain "github.com/studioops/billing/internal/payment/domain"
	subscriptiondomain "github.com/studioops/billing/internal/subscription/domain"
)

type Params struct {
	fx.In

	Config          config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	DocumentSvc     documentdomain.Service
	PaymentSvc      paymentdomain.Service
	SubscriptionSvc subscriptiondomain.Service
}

// Server holds the HTTP handler dependencies.
type Server struct {
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	documentSvc     documentdomain.Service
	paymentSvc      paymentdomain.Service
	subscriptionSvc subscriptiondomain.Service
}

// NewEngine builds the gin engine with recovery, request logging, and
// tracing middleware.
func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{SkipPaths: []string{"/healthz"}}))
	engine.Use(tracing.GinMiddleware(cfg.ServiceName))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:             p.Config,
		log:             p.Log.Named("server"),
		db:              p.DB,
		documentSvc:     p.DocumentSvc,
		paymentSvc:      p.PaymentSvc,
		subscriptionSvc: p.SubscriptionSvc,
	}
}

// RegisterRoutes mounts the API surface on the engine.
func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)

	api := engine.Group("/api")
	{
		documents := api.Group("/documents")
		documents.POST("", s.CreateDocument)
		documents.GET("", s.ListDocuments)
		documents.GET("/:id", s.GetDocument)
		documents.PUT("/:id", s.UpdateDocument)
		documents.PATCH("/:id/status", s.TransitionDocument)
		documents.POST("/:id/payments", s.ApplyPayment)
		documents.GET("/:id/payments", s.ListPayments)

		subscriptions := api.Group("/subscriptions")
		subscriptions.POST("", s.CreateSubscription)
		subscriptions.GET("", s.ListSubscriptions)
		subscriptions.GET("/:id", s.GetSubscription)
		subscriptions.PATCH("/:id", s.UpdateSubscription)
		subscriptions.PATCH("/:id/active", s.SetSubscriptionActive)
		subscriptions.POST("/:id/run", s.RunSubscription)
	}
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// Healthz reports liveness and database reachability.
func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
