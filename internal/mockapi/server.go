// Package mockapi serves the upstream record API shape with fixture data,
// for local development and tests: form-credential auth issuing bearer
// tokens, and paginated people/clients collections in a {"data": [...]}
// envelope.
package mockapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = time.Hour

// Server is a self-contained fixture instance of the record API.
type Server struct {
	app          *fiber.App
	username     string
	passwordHash string
	secret       string
	people       []map[string]any
	clients      []map[string]any
}

// New creates a Server accepting the given credentials. Each instance
// signs tokens with its own random secret.
func New(username, password string) (*Server, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash fixture password: %w", err)
	}

	s := &Server{
		username:     username,
		passwordHash: string(hash),
		secret:       uuid.NewString(),
		people:       seedPeople(),
		clients:      seedClients(),
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/auth", s.handleAuth)
	app.Get("/people", s.requireBearer, s.collection(func() []map[string]any { return s.people }))
	app.Get("/clients", s.requireBearer, s.collection(func() []map[string]any { return s.clients }))
	s.app = app
	return s, nil
}

// App exposes the fiber app, used by tests via app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves the fixture API on addr.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// handleAuth checks form credentials and returns a signed token, or a
// null token when the credentials are declined.
func (s *Server) handleAuth(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	if username != s.username ||
		bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) != nil {
		return c.JSON(fiber.Map{"token": nil})
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	return c.JSON(fiber.Map{"token": signed})
}

func (s *Server) requireBearer(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	_, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	return c.Next()
}

// collection returns a handler serving one resource with limit/offset
// pagination. Offsets past the end yield an empty data array.
func (s *Server) collection(records func() []map[string]any) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 10)
		offset := c.QueryInt("offset", 0)
		if limit < 0 {
			limit = 0
		}
		if offset < 0 {
			offset = 0
		}

		all := records()
		page := []map[string]any{}
		if offset < len(all) {
			end := offset + limit
			if end > len(all) {
				end = len(all)
			}
			page = all[offset:end]
		}
		return c.JSON(fiber.Map{"data": page})
	}
}
