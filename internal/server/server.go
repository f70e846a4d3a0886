package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/file-tools/internal/config"
	"github.com/ironsheep/file-tools/internal/imaging"
	"github.com/ironsheep/file-tools/internal/workspace"
)

// Server is the HTTP front end for the conversion operations.
type Server struct {
	cfg        config.Config
	log        logrus.FieldLogger
	workspaces *workspace.Manager
	echo       *echo.Echo
	ops        []Operation
	version    string

	// now is the clock used for output names.
	now func() time.Time
}

// New builds a Server from cfg. The work directory is created if it does
// not exist.
func New(cfg config.Config, log logrus.FieldLogger, version string) (*Server, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	ws, err := workspace.NewManager(cfg.WorkDir)
	if err != nil {
		return nil, err
	}
	imaging.SetMaxPixels(cfg.Image.MaxPixels)

	s := &Server{
		cfg:        cfg,
		log:        log,
		workspaces: ws,
		echo:       echo.New(),
		version:    version,
		now:        time.Now,
		ops: Operations(Defaults{
			DPI:       cfg.PDF.DPI,
			Quality:   cfg.Image.DefaultQuality,
			Tolerance: cfg.Background.Tolerance,
			Feather:   cfg.Background.Feather,
			Language:  cfg.OCR.Language,
		}),
	}
	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.log.WithFields(logrus.Fields{
				"request_id": v.RequestID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(s.cfg.Server.MaxUpload))
	if s.cfg.Server.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.cfg.Server.RequestTimeout,
		}))
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/operations", s.handleOperations)
	for _, op := range s.ops {
		e.POST(op.Path, s.operationHandler(op))
	}
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on the configured address and blocks until the server is
// shut down. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.log.WithFields(logrus.Fields{
		"addr":     s.cfg.Server.Addr,
		"work_dir": s.workspaces.Root(),
		"version":  s.version,
	}).Info("file-tools listening")

	if err := s.echo.Start(s.cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleOperations(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"operations": s.ops,
	})
}
