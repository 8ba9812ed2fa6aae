package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/muratoffalex/ytscribe/internal/logger"
)

const (
	localRequestID  = "requestid"
	headerRequestID = "X-Request-ID"
)

// RequestLogger tags each request with an ID and logs it once completed.
func RequestLogger(l logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(localRequestID, requestID)
		c.Set(headerRequestID, requestID)

		err := c.Next()
		if err != nil {
			// let the error handler write the response so the status is final
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		statusCode := c.Response().StatusCode()
		entry := l.WithFields(logger.Fields{
			"request_id":  requestID,
			"http_method": c.Method(),
			"uri":         c.OriginalURL(),
			"status_code": statusCode,
			"latency_ms":  time.Since(start).Milliseconds(),
			"client_ip":   c.IP(),
			"user_agent":  string(c.Request().Header.UserAgent()),
		})

		switch {
		case statusCode >= fiber.StatusInternalServerError:
			entry.Error("Request completed with server error")
		case statusCode >= fiber.StatusBadRequest:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
		return nil
	}
}
