package monitoring

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"ferry-system/utils"
)

// OpsServer exposes the metrics and health endpoints on a separate port so
// they never share a listener with the passenger API.
type OpsServer struct {
	monitor *Monitor
	server  *http.Server
}

func NewOpsServer(monitor *Monitor, port, user, passwordHash string) *OpsServer {
	e := echo.New()

	if passwordHash != "" {
		e.Use(middleware.BasicAuth(func(c echo.Context, username, password string) (bool, error) {
			if username != user {
				return false, nil
			}
			return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil, nil
		}))
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		if monitor.redis != nil {
			if err := utils.RedisHealthCheck(monitor.redis); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"redis":  err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return &OpsServer{
		monitor: monitor,
		server: &http.Server{
			Addr:         ":" + port,
			Handler:      e,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start blocks serving the ops endpoints until Shutdown.
func (s *OpsServer) Start() error {
	log.Printf("Ops server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
