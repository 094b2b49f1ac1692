// Package api implements the HTTP surface: upload intake, detection
// queries, statistics, email operations and image serving.
package api

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/microscan/microscan-go/internal/conf"
	"github.com/microscan/microscan-go/internal/datastore"
	"github.com/microscan/microscan-go/internal/errors"
	"github.com/microscan/microscan-go/internal/logging"
	"github.com/microscan/microscan-go/internal/observability"
	"github.com/microscan/microscan-go/internal/processing"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo      *echo.Echo
	Group     *echo.Group
	DS        datastore.Interface
	Settings  *conf.Settings
	Processor *processing.Processor
	Notifier  processing.Notifier

	statsCache     *cache.Cache
	metrics        *observability.Metrics
	apiLogger      *slog.Logger
	apiLoggerClose func() error
}

// New creates the API controller with all routes registered.
func New(settings *conf.Settings, ds datastore.Interface, proc *processing.Processor, notifier processing.Notifier, metrics *observability.Metrics) (*Controller, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	ttl := settings.Statistics.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	c := &Controller{
		Echo:       e,
		Group:      e.Group("/api"),
		DS:         ds,
		Settings:   settings,
		Processor:  proc,
		Notifier:   notifier,
		statsCache: cache.New(ttl, 2*ttl),
		metrics:    metrics,
		apiLogger:  logging.ForService("api"),
	}

	if settings.WebServer.LogPath != "" {
		fileLogger, closeFn, err := logging.NewFileLogger(settings.WebServer.LogPath, "api",
			settings.Main.Log.MaxSizeMB, settings.Main.Log.MaxBackups)
		if err != nil {
			return nil, fmt.Errorf("initializing API log file: %w", err)
		}
		c.apiLogger = fileLogger
		c.apiLoggerClose = closeFn
	}

	c.initRoutes()
	return c, nil
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	// detection lifecycle
	c.Group.POST("/upload", c.Upload)
	c.Group.GET("/detection/:id", c.GetDetection)
	c.Group.DELETE("/detection/:id", c.DeleteDetection)
	c.Group.GET("/detections", c.ListDetections)

	// aggregates
	c.Group.GET("/statistics", c.GetStatistics)

	// email operations
	c.Group.GET("/email-logs", c.ListEmailLogs)
	c.Group.POST("/send-results-email", c.SendResultsEmail)

	// stored images
	c.Echo.GET("/uploads/:filename", c.ServeImage)
	c.Echo.GET("/processed/:filename", c.ServeImage)

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// Start begins serving on the configured host and port. Blocks until the
// server stops.
func (c *Controller) Start() error {
	addr := fmt.Sprintf("%s:%s", c.Settings.WebServer.Host, c.Settings.WebServer.Port)
	c.apiLogger.Info("starting HTTP server", "address", addr)
	return c.Echo.Start(addr)
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			c.apiLogger.Error("failed to close API log file", "error", err)
		}
	}
}

// HealthCheck reports service liveness.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":  "healthy",
		"message": "Microorganism Detection API is running",
	})
}

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response with a correlation
// ID for log matching.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error
// tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs the error and writes the standard error body.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	c.apiLogger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", errorStr,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP())

	return ctx.JSON(code, resp)
}

// statusFor maps an error chain to an HTTP status code, honoring the
// error category taxonomy.
func statusFor(err error) int {
	return errors.HTTPStatusOf(err)
}
