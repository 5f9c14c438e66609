package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"familytree/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/storage/postgres/v3"
)

const (
	CookieName = "familytree_session"

	keyEmail    = "email"
	keyExpanded = "expanded"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Store wraps the fiber session store with the values this application
// keeps per visitor: the signed-in email and the expanded tree nodes.
type Store struct {
	*session.Store
}

// New creates the session store. Sessions live in memory unless postgres
// storage is configured.
func New(cfg config.Config) (*Store, error) {
	var storage fiber.Storage
	switch cfg.Session.Storage {
	case "", "memory":
	case "postgres":
		if cfg.Storage.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres session storage requires the DATABASE_URL environment variable")
		}
		storage = postgres.New(postgres.Config{
			ConnectionURI: cfg.Storage.DatabaseURL,
			Table:         cfg.Session.Table,
			GCInterval:    10 * time.Minute,
		})
	default:
		return nil, fmt.Errorf("unknown session storage: %s", cfg.Session.Storage)
	}

	return NewWithStorage(storage, cfg.Auth.SessionExpiration, cfg.Server.IsProduction()), nil
}

func NewWithStorage(storage fiber.Storage, expiration time.Duration, secure bool) *Store {
	return &Store{Store: session.New(session.Config{
		Storage:        storage,
		Expiration:     expiration,
		KeyLookup:      "cookie:" + CookieName,
		KeyGenerator:   utils.UUIDv4,
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: fiber.CookieSameSiteStrictMode,
	})}
}

// Email returns the signed-in email of the request's session.
func (s *Store) Email(c *fiber.Ctx) (string, error) {
	sess, err := s.Get(c)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	email, _ := sess.Get(keyEmail).(string)
	if email == "" {
		return "", ErrNotAuthenticated
	}
	return email, nil
}

// SignIn starts a fresh session for email. The session id is regenerated
// to prevent fixation.
func (s *Store) SignIn(c *fiber.Ctx, email string) error {
	sess, err := s.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(keyEmail, email)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) SignOut(c *fiber.Ctx) error {
	sess, err := s.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Expanded returns the ids of the tree nodes the visitor has expanded.
func (s *Store) Expanded(c *fiber.Ctx) (map[string]bool, error) {
	sess, err := s.Get(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeExpanded(sess.Get(keyExpanded)), nil
}

// SetExpanded replaces the expanded node set.
func (s *Store) SetExpanded(c *fiber.Ctx, expanded map[string]bool) error {
	sess, err := s.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	sess.Set(keyExpanded, encodeExpanded(expanded))
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// The expanded set is stored as a sorted comma separated string so that
// the session encoder needs no registered types.
func encodeExpanded(expanded map[string]bool) string {
	ids := make([]string, 0, len(expanded))
	for id, open := range expanded {
		if open && id != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return strings.Join(ids, ",")
}

func decodeExpanded(v any) map[string]bool {
	expanded := map[string]bool{}
	raw, _ := v.(string)
	for _, id := range strings.Split(raw, ",") {
		if id != "" {
			expanded[id] = true
		}
	}
	return expanded
}
