package api

import (
	"errors"
	"log/slog"

	"familytree/internal/account"
	"familytree/internal/family"
	"familytree/internal/member"
	"familytree/internal/service"
	"familytree/internal/session"
	"familytree/internal/telemetry"
	"familytree/internal/validator"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	members  *member.Manager
	auth     *account.Authenticator
	sessions *session.Store
	logger   *slog.Logger
	version  string
}

func NewHandler(members *member.Manager, auth *account.Authenticator, sessions *session.Store, logger *slog.Logger, version string) *Handler {
	return &Handler{
		members:  members,
		auth:     auth,
		sessions: sessions,
		logger:   logger,
		version:  version,
	}
}

func render(c *fiber.Ctx, component templ.Component) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return component.Render(c.Context(), c.Response().BodyWriter())
}

func success(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// fail maps domain errors onto status codes. Anything unrecognised is a
// storage or encoding failure and is logged.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if fields := fieldErrors(err); fields != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"status":  "error",
			"message": "validation failed",
			"errors":  fields,
		})
	}

	var structural *family.StructuralError
	switch {
	case errors.As(err, &structural):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":  "error",
			"message": structural.Error(),
			"ids":     structural.IDs,
		})
	case errors.Is(err, family.ErrMemberNotFound):
		return failure(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, family.ErrDuplicateID), errors.Is(err, family.ErrInvalidCouple):
		return failure(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, family.ErrMissingID):
		return failure(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		return failure(c, fiber.StatusTooManyRequests, "too many login attempts, try again later")
	case errors.Is(err, account.ErrInvalidEmail):
		return failure(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		return failure(c, fiber.StatusUnauthorized, err.Error())
	}

	h.logger.ErrorContext(telemetry.ContextFromFiber(c), "Request failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return failure(c, fiber.StatusInternalServerError, "internal server error")
}

// fieldErrors is validator.FieldErrors with couple keys prefixed by the
// partner they belong to, as in "wife.lastName".
func fieldErrors(err error) map[string]string {
	fields := validator.FieldErrors(err)
	if fields == nil {
		return nil
	}

	var partner *member.PartnerError
	if !errors.As(err, &partner) {
		return fields
	}
	prefixed := make(map[string]string, len(fields))
	for name, msg := range fields {
		prefixed[partner.Role+"."+name] = msg
	}
	return prefixed
}

func badBody(c *fiber.Ctx) error {
	return failure(c, fiber.StatusBadRequest, "invalid request body")
}
