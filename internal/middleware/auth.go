package middleware

import (
	"errors"
	"log/slog"

	"familytree/internal/session"

	"github.com/gofiber/fiber/v2"
)

const LocalsEmail = "email"

// AuthenticatedSession sends visitors without a signed-in session to the
// login page.
func AuthenticatedSession(store *session.Store, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, err := store.Email(c)
		if err != nil {
			if !errors.Is(err, session.ErrNotAuthenticated) {
				logger.ErrorContext(c.UserContext(), "Session lookup failed", "error", err)
				return c.Status(fiber.StatusInternalServerError).SendString("Session error")
			}
			return c.Redirect("/login", fiber.StatusFound)
		}

		c.Locals(LocalsEmail, email)
		return c.Next()
	}
}

// AuthenticatedAPI answers 401 instead of redirecting.
func AuthenticatedAPI(store *session.Store, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, err := store.Email(c)
		if err != nil {
			if !errors.Is(err, session.ErrNotAuthenticated) {
				logger.ErrorContext(c.UserContext(), "Session lookup failed", "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"status":  "error",
					"message": "session error",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "authentication required",
			})
		}

		c.Locals(LocalsEmail, email)
		return c.Next()
	}
}

// RedirectAuthenticated sends signed-in visitors of the login page home.
func RedirectAuthenticated(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := store.Email(c); err == nil {
			return c.Redirect("/", fiber.StatusFound)
		}
		return c.Next()
	}
}

func Email(c *fiber.Ctx) string {
	email, _ := c.Locals(LocalsEmail).(string)
	return email
}
