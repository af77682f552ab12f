package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"

	"github.com/samcorl/vfa-gallery-sub008/activity"
	"github.com/samcorl/vfa-gallery-sub008/actor"
	"github.com/samcorl/vfa-gallery-sub008/heuristics"
	"github.com/samcorl/vfa-gallery-sub008/moderation"
	"github.com/samcorl/vfa-gallery-sub008/notify"
	"github.com/samcorl/vfa-gallery-sub008/ratelimit"
	"github.com/samcorl/vfa-gallery-sub008/util/dbutil"
)

type Config struct {
	DatabaseURL      string
	MaxDBConnections int
	RedisURL         string
	AdminToken       string
	SlackWebhookURL  string
	ToneThreshold    float64
	NewAccountDaily  int
	Logger           *slog.Logger
}

type Server struct {
	echo       *echo.Echo
	logger     *slog.Logger
	recorder   *activity.Recorder
	directory  actor.Directory
	limiter    *ratelimit.Limiter
	throttle   *ratelimit.NewAccountThrottle
	engine     *heuristics.Engine
	queue      *moderation.Queue
	adminToken string
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	db, err := dbutil.SetupDatabase(config.DatabaseURL, config.MaxDBConnections)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var notifier notify.Notifier
	if config.SlackWebhookURL != "" {
		logger.Info("configuring slack operational notifications")
		notifier = notify.NewSlackNotifier(config.SlackWebhookURL)
	}

	events, err := activity.NewGormEventStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing event store: %w", err)
	}
	recorder := activity.NewRecorder(events, logger)
	recorder.Notifier = notifier

	gormDir, err := actor.NewGormDirectory(db)
	if err != nil {
		return nil, fmt.Errorf("initializing actor directory: %w", err)
	}
	var directory actor.Directory
	var counters ratelimit.CounterStore
	if config.RedisURL != "" {
		statusCache, err := actor.NewRedisStatusCache(config.RedisURL, 30*time.Second)
		if err != nil {
			return nil, fmt.Errorf("initializing redis status cache: %w", err)
		}
		directory = actor.NewCachedDirectoryWithCache(gormDir, statusCache)
		rcs, err := ratelimit.NewRedisCounterStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis counter store: %w", err)
		}
		counters = rcs
	} else {
		directory = actor.NewCachedDirectory(gormDir, 5_000, 30*time.Second)
		counters = ratelimit.NewMemCounterStore()
	}
	limiter := ratelimit.NewLimiter(counters, logger)

	engine := heuristics.NewEngine(recorder, directory, logger)
	engine.Notifier = notifier

	queue, err := moderation.NewQueue(db, recorder, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing moderation queue: %w", err)
	}
	if config.ToneThreshold > 0 {
		queue.ToneThreshold = config.ToneThreshold
	}

	throttle := ratelimit.NewNewAccountThrottle(recorder)
	if config.NewAccountDaily > 0 {
		throttle.MaxDaily = config.NewAccountDaily
	}

	srv := &Server{
		logger:     logger,
		recorder:   recorder,
		directory:  directory,
		limiter:    limiter,
		throttle:   throttle,
		engine:     engine,
		queue:      queue,
		adminToken: config.AdminToken,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("warden"))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(srv.identity)
	e.HTTPErrorHandler = srv.errorHandler

	e.GET("/_health", srv.handleHealthCheck)

	// user-facing surfaces, one limiter tier each
	e.GET("/artworks/:id", srv.handleViewArtwork, ratelimit.Middleware(limiter, ratelimit.TierPublic))
	e.POST("/login", srv.handleLogin, ratelimit.Middleware(limiter, ratelimit.TierAuth))
	e.POST("/artworks", srv.handleCreateArtwork, ratelimit.Middleware(limiter, ratelimit.TierUpload))
	e.POST("/galleries", srv.handleCreateGallery, ratelimit.Middleware(limiter, ratelimit.TierGeneral))
	e.POST("/messages", srv.handleSendMessage, ratelimit.Middleware(limiter, ratelimit.TierMessage))

	admin := e.Group("/admin", srv.adminAuth)
	admin.GET("/moderation/queue", srv.handleListQueue)
	admin.POST("/moderation/messages/:id/approve", srv.handleApprove)
	admin.POST("/moderation/messages/:id/reject", srv.handleReject)
	admin.POST("/moderation/messages/:id/flag", srv.handleFlagMessage)
	admin.POST("/actors/:id/flags", srv.handleFlagActor)
	admin.DELETE("/actors/:id/flags", srv.handleClearFlags)

	srv.echo = e
	return srv, nil
}

// identity propagates the authenticated user from the gateway's X-User-Id
// header into the request context, where the rate limiter derives actor keys.
func (s *Server) identity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if uid := c.Request().Header.Get("X-User-Id"); uid != "" {
			c.Set(ratelimit.ContextUserID, uid)
		}
		return next(c)
	}
}

// adminAuth gates the review endpoints on the static admin token. Reviewer
// identity arrives on the X-Reviewer header from the identity layer; it is
// trusted here, not re-verified.
func (s *Server) adminAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.adminToken == "" {
			return &echo.HTTPError{Code: http.StatusForbidden, Message: "admin API disabled (no token configured)"}
		}
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if auth != "Bearer "+s.adminToken {
			return &echo.HTTPError{Code: http.StatusForbidden, Message: "admin credentials required"}
		}
		reviewer := c.Request().Header.Get("X-Reviewer")
		if reviewer == "" {
			reviewer = "admin"
		}
		c.Set("reviewer", reviewer)
		return next(c)
	}
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= 500 {
		s.logger.Warn("warden-http-internal-error", "err", err)
	}
	if !c.Response().Committed {
		c.JSON(code, map[string]any{"error": msg})
	}
}

func (s *Server) RunAPI(bind string) error {
	httpd := &http.Server{
		Handler:        s.echo,
		Addr:           bind,
		ReadTimeout:    time.Minute,
		WriteTimeout:   time.Minute,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("warden listening", "bind", bind)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	s.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpd.Shutdown(ctx)
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}
