package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"gorm.io/gorm"

	"dispatch/internal/auth"
	"dispatch/internal/authz"
	"dispatch/internal/config"
	"dispatch/internal/database"
	"dispatch/internal/handler"
	"dispatch/internal/middleware"
	"dispatch/internal/presence"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Hub    *presence.Hub
	logger *logrus.Logger
}

// Handlers groups everything the router serves.
type Handlers struct {
	Users       *handler.UserHandler
	Projects    *handler.ProjectHandler
	Workers     *handler.WorkerHandler
	Vehicles    *handler.VehicleHandler
	Assignments *handler.AssignmentHandler
	Presence    *handler.PresenceHandler
	Health      *handler.HealthHandler
}

// RouterDeps are the cross-cutting collaborators of the router.
type RouterDeps struct {
	Tokens      *auth.TokenManager
	Authorizer  middleware.Authorizer
	RateStore   limiter.Store
	RateLimit   config.RateLimitOptions
	MetricsPath string
	Logger      *logrus.Logger
}

func Init(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ Connected to database")

	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL(), logger); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}

	authorizer, err := authz.NewService(authz.Config{
		ModelPath:  cfg.AccessModelPath,
		PolicyPath: cfg.AccessPolicyPath,
		Logger:     logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load access policy")
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	workerRepo := repository.NewWorkerRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	assignments := service.NewAssignmentService(assignmentRepo, authorizer, logger)
	hub := presence.NewHub(presence.NewRegistry(), cfg.AllowedOrigins, logger)

	// Initialize handlers
	handlers := Handlers{
		Users:       handler.NewUserHandler(userRepo, tokens),
		Projects:    handler.NewProjectHandler(projectRepo),
		Workers:     handler.NewWorkerHandler(workerRepo),
		Vehicles:    handler.NewVehicleHandler(vehicleRepo),
		Assignments: handler.NewAssignmentHandler(assignments, hub.Registry(), hub, workerRepo),
		Presence:    handler.NewPresenceHandler(hub),
		Health:      handler.NewHealthHandler(sqlDB),
	}

	engine := NewRouter(RouterDeps{
		Tokens:      tokens,
		Authorizer:  authorizer,
		RateStore:   middleware.NewStore(cfg.RateLimit, logger),
		RateLimit:   cfg.RateLimit,
		MetricsPath: cfg.MetricsPath,
		Logger:      logger,
	}, handlers)

	return &Server{
		Engine: engine,
		DB:     db,
		Config: cfg,
		Hub:    hub,
		logger: logger,
	}, nil
}

// NewRouter registers every route. Mutations are rate limited after the token
// is checked, so limits apply per user.
func NewRouter(deps RouterDeps, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(deps.Logger))

	limit := middleware.RateLimit(deps.RateStore, deps.RateLimit, deps.Logger)
	access := func(object, action string) gin.HandlerFunc {
		return middleware.RequireAccess(deps.Authorizer, object, action)
	}

	// Public routes
	r.GET("/health", h.Health.Health)
	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/register", limit, h.Users.Register)
	r.POST("/login", limit, h.Users.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(deps.Tokens))
	{
		authorized.GET("/me", h.Users.Me)
		authorized.PUT("/users/:id/role", limit, access(authz.ObjectUsers, authz.ActionWrite), h.Users.UpdateRole)

		// Directory routes
		read := access(authz.ObjectDirectory, authz.ActionRead)
		write := access(authz.ObjectDirectory, authz.ActionWrite)
		authorized.GET("/projects", read, h.Projects.GetAll)
		authorized.GET("/projects/:id", read, h.Projects.GetByID)
		authorized.POST("/projects", limit, write, h.Projects.Create)
		authorized.PUT("/projects/:id", limit, write, h.Projects.Update)

		authorized.GET("/workers", read, h.Workers.GetAll)
		authorized.GET("/workers/:id", read, h.Workers.GetByID)
		authorized.POST("/workers", limit, write, h.Workers.Create)
		authorized.PUT("/workers/reorder", limit, write, h.Workers.Reorder)

		authorized.GET("/vehicles", read, h.Vehicles.GetAll)
		authorized.GET("/vehicles/:id", read, h.Vehicles.GetByID)
		authorized.POST("/vehicles", limit, write, h.Vehicles.Create)
		authorized.PUT("/vehicles/:id", limit, write, h.Vehicles.Update)
		authorized.DELETE("/vehicles/:id", limit, write, h.Vehicles.Delete)

		// Assignment routes; the service checks access itself.
		authorized.GET("/assignments", h.Assignments.List)
		authorized.GET("/assignments/export", h.Assignments.Export)
		authorized.GET("/assignments/:id", h.Assignments.GetByID)
		authorized.GET("/assignments/:id/editors", h.Assignments.Editors)
		authorized.POST("/assignments", limit, h.Assignments.Create)
		authorized.PATCH("/assignments/:id", limit, h.Assignments.Update)
		authorized.DELETE("/assignments/:id", limit, h.Assignments.Delete)
		authorized.POST("/assignments/batch", limit, h.Assignments.BatchCreate)
		authorized.PATCH("/assignments/batch", limit, h.Assignments.BatchUpdate)
		authorized.POST("/assignments/drop", limit, h.Assignments.Drop)
		authorized.GET("/reports/crew", h.Assignments.CrewReport)

		authorized.GET("/ws/presence", access(authz.ObjectAssignments, authz.ActionRead), h.Presence.Connect)
	}

	return r
}

func (s *Server) Run() {
	ctx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.Hub.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.logger.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Fatalf("❌ Server forced to shutdown: %s", err)
	}
	stopHub()

	if sqlDB, err := s.DB.DB(); err == nil {
		sqlDB.Close()
	}
	s.logger.Info("✅ Server exited properly")
}
