package api

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"familytree/internal/account"
	"familytree/internal/config"
	"familytree/internal/member"
	"familytree/internal/middleware"
	"familytree/internal/session"
	"familytree/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
)

type Dependencies struct {
	Config   config.Config
	Members  *member.Manager
	Auth     *account.Authenticator
	Sessions *session.Store
	Logger   *slog.Logger
}

// NewApp builds the Fiber application with the middleware stack and every
// page and API route.
func NewApp(deps Dependencies) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		AppName:      "familytree",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    1 << 20,
		ErrorHandler: errorHandler(deps.Logger),
	})

	h := NewHandler(deps.Members, deps.Auth, deps.Sessions, deps.Logger, cfg.Telemetry.ServiceVersion)

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.Server.IsProduction()}))
	app.Use(requestid.New())
	if cfg.Telemetry.Enabled {
		app.Use(telemetry.FiberMiddleware(cfg.Telemetry.ServiceName))
	}
	app.Use(middleware.Logger(deps.Logger))
	app.Use(helmet.New())
	app.Use(middleware.SecurityHeaders())

	// JSON requests cannot be sent cross-site without a preflight and the
	// session cookie is SameSite=Strict, so only form posts carry a token.
	app.Use(csrf.New(csrf.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || c.Is("json")
		},
		KeyLookup:      "form:csrf_token",
		CookieName:     "csrf_",
		CookieSameSite: fiber.CookieSameSiteStrictMode,
		CookieSecure:   cfg.Server.IsProduction(),
		CookieHTTPOnly: true,
		Expiration:     1 * time.Hour,
		KeyGenerator:   utils.UUIDv4,
		ContextKey:     csrfContextKey,
	}))

	app.Get("/api/health", h.Health)

	apiLimiter := limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return failure(c, fiber.StatusTooManyRequests, "too many requests, try again later")
		},
	})

	apiGroup := app.Group("/api", apiLimiter, middleware.AuthenticatedAPI(deps.Sessions, deps.Logger), middleware.NoStore())
	apiGroup.Get("/members", h.ListMembers)
	apiGroup.Post("/members", h.CreateMember)
	apiGroup.Get("/members/:id", h.GetMember)
	apiGroup.Put("/members/:id", h.UpdateMember)
	apiGroup.Delete("/members/:id", h.DeleteMember)
	apiGroup.Post("/members/:id/children", h.CreateChild)
	apiGroup.Post("/members/:id/spouse", h.CreateSpouse)
	apiGroup.Get("/members/:id/drafts/child", h.ChildDraft)
	apiGroup.Get("/members/:id/drafts/spouse", h.SpouseDraft)
	apiGroup.Get("/members/:id/drafts/couple", h.CoupleDraft)
	apiGroup.Post("/couples", h.CreateCouple)
	apiGroup.Get("/tree", h.GetTree)
	apiGroup.Get("/stats", h.GetStats)

	authenticated := middleware.AuthenticatedSession(deps.Sessions, deps.Logger)
	noStore := middleware.NoStore()

	app.Get("/login", middleware.RedirectAuthenticated(deps.Sessions), h.ShowLoginPage)
	app.Post("/login", h.Login)
	app.Post("/logout", h.Logout)

	app.Get("/", authenticated, noStore, h.ShowDashboard)
	app.Post("/tree/expand-all", authenticated, h.ExpandAll)
	app.Post("/tree/collapse-all", authenticated, h.CollapseAll)
	app.Post("/tree/:id/toggle", authenticated, h.ToggleNode)

	app.Get("/members/new", authenticated, noStore, h.ShowNewMemberPage)
	app.Post("/members/new", authenticated, h.CreateMemberForm)
	app.Get("/members/:id/edit", authenticated, noStore, h.ShowEditMemberPage)
	app.Post("/members/:id/edit", authenticated, h.UpdateMemberForm)
	app.Post("/members/:id/delete", authenticated, h.DeleteMemberForm)
	app.Get("/members/:id/children/new", authenticated, noStore, h.ShowNewChildPage)
	app.Post("/members/:id/children/new", authenticated, h.CreateChildForm)
	app.Get("/members/:id/spouse/new", authenticated, noStore, h.ShowNewSpousePage)
	app.Post("/members/:id/spouse/new", authenticated, h.CreateSpouseForm)
	app.Get("/couples/new", authenticated, noStore, h.ShowNewCouplePage)
	app.Post("/couples/new", authenticated, h.CreateCoupleForm)

	return app
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.ErrorContext(telemetry.ContextFromFiber(c), "Unhandled error",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return failure(c, code, strings.ToLower(message))
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(code).SendString(message)
	}
}
