package api

import (
	"errors"

	"familytree/internal/account"
	"familytree/internal/family"
	"familytree/internal/middleware"
	"familytree/internal/service"
	"familytree/internal/telemetry"
	"familytree/internal/web"

	"github.com/gofiber/fiber/v2"
)

const csrfContextKey = "token"

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(csrfContextKey).(string)
	return token
}

func (h *Handler) ShowLoginPage(c *fiber.Ctx) error {
	return render(c, web.LoginPage(web.LoginProps{CSRFToken: csrfToken(c)}))
}

// Login accepts the login form or a JSON body. Form posts are answered
// with a redirect or the login page, JSON with the API envelope.
func (h *Handler) Login(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)
	wantsJSON := c.Is("json")

	var param account.LoginParam
	if err := c.BodyParser(&param); err != nil {
		if wantsJSON {
			return badBody(c)
		}
		return h.loginFailed(c, param.Email, fiber.StatusBadRequest, "Please enter your email and password.")
	}
	param.IP = c.IP()

	email, err := h.auth.Login(ctx, param)
	if err != nil {
		if wantsJSON {
			return h.fail(c, err)
		}
		switch {
		case errors.Is(err, service.ErrTooManyAttempts):
			return h.loginFailed(c, param.Email, fiber.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		case errors.Is(err, account.ErrInvalidEmail):
			return h.loginFailed(c, param.Email, fiber.StatusUnprocessableEntity, "Please enter a valid email address.")
		default:
			return h.loginFailed(c, param.Email, fiber.StatusUnauthorized, "Invalid email or password.")
		}
	}

	if err := h.sessions.SignIn(c, email); err != nil {
		h.logger.ErrorContext(ctx, "Failed to start session", "error", err)
		if wantsJSON {
			return failure(c, fiber.StatusInternalServerError, "internal server error")
		}
		return h.loginFailed(c, email, fiber.StatusInternalServerError, "Something went wrong. Please try again.")
	}

	if wantsJSON {
		return success(c, fiber.StatusOK, "signed in", fiber.Map{"email": email})
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *Handler) loginFailed(c *fiber.Ctx, email string, status int, message string) error {
	c.Status(status)
	return render(c, web.LoginPage(web.LoginProps{
		CSRFToken: csrfToken(c),
		Email:     email,
		Error:     message,
	}))
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.SignOut(c); err != nil {
		h.logger.ErrorContext(telemetry.ContextFromFiber(c), "Failed to end session", "error", err)
	}
	if c.Is("json") {
		return success(c, fiber.StatusOK, "signed out", nil)
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// ShowDashboard renders the stats and the tree. Nodes the visitor has not
// expanded are shown collapsed.
func (h *Handler) ShowDashboard(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)
	props := web.DashboardProps{
		CSRFToken: csrfToken(c),
		Email:     middleware.Email(c),
	}

	stats, err := h.members.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load family data", "error", err)
		props.Error = "The family data could not be loaded."
		c.Status(fiber.StatusInternalServerError)
		return render(c, web.DashboardPage(props))
	}
	props.Stats = stats

	tree, err := h.members.Tree(ctx)
	if err != nil {
		var structural *family.StructuralError
		if errors.As(err, &structural) {
			props.Error = "The family data is inconsistent: " + structural.Error()
			c.Status(fiber.StatusConflict)
		} else {
			h.logger.ErrorContext(ctx, "Failed to build family tree", "error", err)
			props.Error = "The family tree could not be built."
			c.Status(fiber.StatusInternalServerError)
		}
		return render(c, web.DashboardPage(props))
	}

	expanded, err := h.sessions.Expanded(c)
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to read expanded nodes", "error", err)
		expanded = map[string]bool{}
	}
	props.Nodes = web.NodeViews(tree.Roots, expanded)

	return render(c, web.DashboardPage(props))
}

func (h *Handler) ToggleNode(c *fiber.Ctx) error {
	expanded, err := h.sessions.Expanded(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	if expanded[id] {
		delete(expanded, id)
	} else {
		expanded[id] = true
	}

	if err := h.sessions.SetExpanded(c, expanded); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *Handler) ExpandAll(c *fiber.Ctx) error {
	tree, err := h.members.Tree(telemetry.ContextFromFiber(c))
	if err != nil {
		return err
	}
	if err := h.sessions.SetExpanded(c, web.ExpandableIDs(tree)); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *Handler) CollapseAll(c *fiber.Ctx) error {
	if err := h.sessions.SetExpanded(c, map[string]bool{}); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}
