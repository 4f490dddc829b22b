package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/moodquest/internal/config"
	"anoa.com/moodquest/internal/jobs"
	"anoa.com/moodquest/internal/middleware"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/internal/modules/gamification/engine"
	"anoa.com/moodquest/pkg/storage"
	"anoa.com/moodquest/pkg/validator"

	leaderboardHttp "anoa.com/moodquest/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/moodquest/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/moodquest/internal/modules/leaderboard/service"

	notifHttp "anoa.com/moodquest/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/moodquest/internal/modules/notification/repository"
	notifService "anoa.com/moodquest/internal/modules/notification/service"

	profileHttp "anoa.com/moodquest/internal/modules/profile/delivery/http"
	profileService "anoa.com/moodquest/internal/modules/profile/service"

	searchHttp "anoa.com/moodquest/internal/modules/search/delivery/http"
	searchService "anoa.com/moodquest/internal/modules/search/service"

	sessionHttp "anoa.com/moodquest/internal/modules/session/delivery/http"
	sessionService "anoa.com/moodquest/internal/modules/session/service"
	sessionStore "anoa.com/moodquest/internal/modules/session/store"

	statHttp "anoa.com/moodquest/internal/modules/stat/delivery/http"
	statRepo "anoa.com/moodquest/internal/modules/stat/repository"
	statService "anoa.com/moodquest/internal/modules/stat/service"

	userHttp "anoa.com/moodquest/internal/modules/user/delivery/http"
	userRepo "anoa.com/moodquest/internal/modules/user/repository"
	userService "anoa.com/moodquest/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg         *config.Config
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *jobs.Scheduler
	sessions    sessionService.SessionService
}

// NewServer wires every module over db. redisClient may be nil; rate limits,
// token revocation and live notifications then fall back to their in-process
// or disabled modes.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if err := validator.RegisterMoodValidation(domain.IsMood); err != nil {
		return nil, err
	}

	userRepo := userRepo.NewUserRepository(db)

	avatars, err := storage.NewCloudinaryStorage(cfg.Cloudinary)
	if err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			return nil, err
		}
		log.Warn().Msg("cloudinary not configured, avatar uploads disabled")
	}

	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliSearchHost != "" {
		meiliClient = meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	} else {
		log.Warn().Msg("MEILISEARCH_HOST not set, journal search disabled")
	}
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	// Identity
	authSvc := userService.NewAuthService(userRepo, redisClient, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := userHttp.NewAuthHandler(authSvc, userRepo)
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient, cfg.NotificationTTL)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins)

	// Session Module
	sessionSvc := sessionService.NewSessionService(sessionStore.NewGormStore(db), engine.New(nil), sessionService.Options{
		RecentLimit:   cfg.RecentEntriesLimit,
		IdleTTL:       cfg.SessionIdleTTL,
		EntryCooldown: cfg.RateLimitEntry,
		Redis:         redisClient,
		Notifier:      notificationSvc,
		Indexer:       searchSvc,
	})
	sessionHandler := sessionHttp.NewSessionHandler(sessionSvc)

	authSvc.OnChange(func(ev userService.Event) {
		if ev.Kind == userService.EventSignedOut {
			sessionSvc.Drop(ev.UserID)
			log.Debug().Str("user_id", ev.UserID.String()).Msg("session dropped after sign-out")
		}
	})

	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepo.NewLeaderboardRepository(db))
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	profileSvc := profileService.NewProfileService(userRepo, avatars, leaderboardSvc)
	profileSvc.OnChange(sessionSvc.Drop)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	statSvc := statService.NewStatService(userRepo, statRepo.NewStatRepository(db))
	statHandler := statHttp.NewStatHandler(statSvc)

	scheduler := jobs.NewScheduler()
	for _, job := range []jobs.Job{
		jobs.NewSessionSweep(sessionSvc),
		jobs.NewNotificationPurge(notificationSvc),
	} {
		if err := scheduler.Register(job); err != nil {
			return nil, err
		}
	}

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/notifications/ws", "/healthz"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": sessionSvc.Active()})
	})

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	api.GET("/stats/users", statHandler.GetTotalUsers)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/session", sessionHandler.Load)

		protected.POST("/moods", sessionHandler.CheckIn)
		protected.GET("/moods", sessionHandler.ListMoods)

		protected.POST("/journal", sessionHandler.WriteJournal)
		protected.GET("/journal", sessionHandler.ListJournals)
		protected.GET("/journal/search", searchHandler.SearchJournals)

		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)

		protected.GET("/stats/me", statHandler.GetMyStats)
		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

		protected.GET("/notifications", notificationHandler.GetPending)
		protected.DELETE("/notifications/:id", notificationHandler.Dismiss)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		cfg:         cfg,
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
		sessions:    sessionSvc,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests and stops
// the scheduled jobs.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.scheduler.Start()
	if s.redisClient != nil {
		go sessionService.ListenInvalidations(ctx, s.redisClient, s.sessions)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.scheduler.Stop(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info().Msg("server exited")
		return nil
	case err := <-errCh:
		s.scheduler.Stop(context.Background())
		return err
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
