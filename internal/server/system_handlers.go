package server

import (
	"errors"
	"net/http"

	"fitconnect/internal/api"
	"fitconnect/internal/db"
	"fitconnect/internal/email"
	"fitconnect/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type DBTestResponse struct {
	Status     string `json:"status"`
	Database   bool   `json:"database"`
	ClassCount int    `json:"class_count"`
	LatencyMS  int64  `json:"latency_ms"`
	Redis      bool   `json:"redis"`
	Error      string `json:"error,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Connectivity diagnostic
// @Description  Pings the database, counts classes and pings Redis. The database part gives up after five seconds.
// @Tags         system
// @Produce      json
// @Success      200 {object} server.DBTestResponse
// @Failure      503 {object} server.DBTestResponse
// @Failure      504 {object} server.DBTestResponse
// @Router       /db-test [get]
func DBTest(database *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		resp := DBTestResponse{Status: "ok"}

		probe, err := db.Probe(ctx, database)
		if probe != nil {
			resp.Database = probe.Connected
			resp.ClassCount = probe.ClassCount
			resp.LatencyMS = probe.LatencyMS
		}
		if err != nil {
			logger.Error("Database probe failed", "error", err)
			resp.Status = "error"
			resp.Error = err.Error()
			code := http.StatusServiceUnavailable
			if errors.Is(err, db.ErrProbeTimeout) {
				code = http.StatusGatewayTimeout
			}
			c.JSON(code, resp)
			return
		}

		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis ping failed", "error", err)
				resp.Status = "degraded"
				resp.Error = err.Error()
			} else {
				resp.Redis = true
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// @Summary      Queue a test email
// @Tags         system
// @Produce      json
// @Security     BearerAuth
// @Param        email query string true "Recipient email"
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/v1/admin/test-email [post]
func TestEmail(emailService *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		testEmail := c.Query("email")
		if testEmail == "" {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "email parameter required"})
			return
		}

		if err := emailService.Send(c.Request.Context(), testEmail, "Test User", "Test Email from FitConnect", "Email is working!"); err != nil {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, api.MessageResponse{Message: "Email queued successfully"})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RedirectTo answers with a permanent redirect to path.
func RedirectTo(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, path)
	}
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Route not found: " + c.Request.URL.Path})
}
