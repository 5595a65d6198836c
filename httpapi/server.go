package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SendPath is the publish endpoint.
const SendPath = "/HelloWorldMDBServletClient"

// NewServer configures the Echo server and routes. A nil gatherer leaves
// /metrics unregistered. Extra middleware runs after recovery and logging.
func NewServer(ctrl *Controller, g prometheus.Gatherer, logger *slog.Logger, mw ...echo.MiddlewareFunc) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(mw...)

	e.GET(SendPath, ctrl.Send)
	e.POST(SendPath, ctrl.Send)
	e.GET("/health", ctrl.Health)

	if g != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}

	return e
}

// Extractor restores request-scoped context, such as a trace, from HTTP headers.
type Extractor interface {
	Extract(ctx context.Context, h http.Header) context.Context
}

// TraceContext hands each request's trace context to the handler's context.
func TraceContext(ex Extractor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(ex.Extract(req.Context(), req.Header)))

			return next(c)
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}

			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)

			return nil
		},
	})
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func Shutdown(ctx context.Context, e *echo.Echo) error {
	if err := e.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
