package middleware

import (
	"strconv"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/metrics"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request and records the HTTP metrics.
// Routes are labelled by their pattern so ids do not explode cardinality.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		path := c.Route().Path
		if path == "" || path == "/" && c.Path() != "/" {
			path = "unmatched"
		}
		metrics.HTTPTotalRequests.WithLabelValues(path, c.Method(), strconv.Itoa(status)).Inc()
		metrics.HTTPResponseDuration.WithLabelValues(path, c.Method()).Observe(elapsed.Seconds())

		entry := log.WithFields(log.Fields{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"ip":          c.IP(),
		})
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			entry = entry.WithField("request_id", rid)
		}
		if uid, ok := c.Locals("userID").(uint); ok {
			entry = entry.WithField("user_id", uid)
		}
		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Info("request")
		default:
			entry.Debug("request")
		}
		return nil
	}
}
