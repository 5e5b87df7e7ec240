package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ppiankov/truthledger/internal/model"
	"github.com/ppiankov/truthledger/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ClaimLister reads stored claims for display
type ClaimLister interface {
	ListClaims(ctx context.Context, limit int) ([]model.ClaimRecord, error)
	Count(ctx context.Context) (int, error)
}

// Analyzer runs a batch of URLs through the pipeline
type Analyzer interface {
	Analyze(ctx context.Context, urls []string) *pipeline.BatchReport
}

// Server is the dashboard HTTP server
type Server struct {
	echo     *echo.Echo
	cfg      model.ServerConfig
	claims   ClaimLister
	analyzer Analyzer
	logger   *zap.Logger
}

type flash struct {
	Kind    string
	Message string
}

type pageData struct {
	RefreshSeconds int
	URLs           string
	Claims         []model.ClaimRecord
	Flash          *flash
	Failures       []*model.Article
	Warnings       []string
}

// New creates the dashboard server and registers its routes
func New(cfg model.ServerConfig, claims ClaimLister, analyzer Analyzer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	renderer, err := NewTemplateRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/healthz" || path == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request completed",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		cfg:      cfg,
		claims:   claims,
		analyzer: analyzer,
		logger:   logger,
	}

	e.GET("/", s.handleDashboard)
	e.POST("/analyze", s.handleAnalyze)
	e.GET("/api/claims", s.handleListClaims)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Info("dashboard listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleDashboard(c echo.Context) error {
	data := s.newPage(c.Request().Context())
	data.URLs = strings.Join(s.cfg.DefaultURLs, "\n")
	return c.Render(http.StatusOK, "dashboard", data)
}

func (s *Server) handleAnalyze(c echo.Context) error {
	input := c.FormValue("urls")
	urls := strings.Split(input, "\n")

	report := s.analyzer.Analyze(c.Request().Context(), urls)

	data := s.newPage(c.Request().Context())
	data.URLs = input
	data.Failures = report.Failed()
	data.Warnings = report.WarningMessages()

	if n := len(report.Records); n > 0 {
		data.Flash = &flash{Kind: "success", Message: fmt.Sprintf("Analyzed %d claims!", n)}
	} else {
		data.Flash = &flash{Kind: "warning", Message: "No claims were found for the provided URLs."}
	}

	return c.Render(http.StatusOK, "dashboard", data)
}

func (s *Server) handleListClaims(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	ctx := c.Request().Context()
	records, err := s.claims.ListClaims(ctx, limit)
	if err != nil {
		s.logger.Error("list claims", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list claims")
	}
	total, err := s.claims.Count(ctx)
	if err != nil {
		s.logger.Error("count claims", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count claims")
	}

	if records == nil {
		records = []model.ClaimRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"claims": records,
		"total":  total,
	})
}

// newPage loads the stored claims. A query failure renders as an empty list.
func (s *Server) newPage(ctx context.Context) *pageData {
	records, err := s.claims.ListClaims(ctx, 0)
	if err != nil {
		s.logger.Error("list claims for dashboard", zap.Error(err))
		records = nil
	}

	return &pageData{
		RefreshSeconds: refreshSeconds(s.cfg.RefreshInterval),
		Claims:         records,
	}
}

func refreshSeconds(d time.Duration) int {
	if d <= 0 {
		return 60
	}
	return max(1, int(d.Seconds()))
}
