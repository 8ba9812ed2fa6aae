package server

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/muratoffalex/ytscribe/internal/ai"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/service/captions"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

const msgInternal = "internal server error"

// StatusFor maps domain errors onto HTTP statuses.
func StatusFor(err error) int {
	var aiErr *ai.AIError
	var fiberErr *fiber.Error
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, youtube.ErrInvalidURL),
		errors.Is(err, ai.ErrInvalidModel):
		return fiber.StatusBadRequest
	case errors.Is(err, youtube.ErrPrivateVideo):
		return fiber.StatusForbidden
	case errors.Is(err, youtube.ErrVideoUnavailable),
		errors.Is(err, captions.ErrNoCaptionsAvailable),
		errors.Is(err, captions.ErrNoTranscriptAvailable):
		return fiber.StatusNotFound
	case errors.As(err, &aiErr):
		return fiber.StatusBadGateway
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// publicMessage hides internal detail for 5xx responses other than upstream
// model failures, which carry the upstream status for diagnosis.
func publicMessage(err error, status int) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return FormatValidationErrors(validationErrs)
	}

	var aiErr *ai.AIError
	if errors.As(err, &aiErr) {
		if aiErr.HTTPStatusCode != 0 {
			return fmt.Sprintf("model request failed with status %d: %s", aiErr.HTTPStatusCode, aiErr.Message)
		}
		return "model request failed: " + aiErr.Error()
	}

	if status >= fiber.StatusInternalServerError {
		return msgInternal
	}
	return err.Error()
}

func respondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

func newErrorHandler(l logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		entry := l.WithError(err).WithFields(logger.Fields{
			"request_id": c.Locals(localRequestID),
			"path":       c.Path(),
			"status":     status,
		})
		if status >= fiber.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Debug("Request rejected")
		}
		return respondWithError(c, status, publicMessage(err, status))
	}
}
