package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vatspratapsingh/yapper-chat-app/internal/chat"
	"github.com/vatspratapsingh/yapper-chat-app/internal/config"
	"github.com/vatspratapsingh/yapper-chat-app/internal/db"
)

// Handler carries the shared collaborators into every route. No package
// globals: cmd/main wires one instance per process.
type Handler struct {
	db     *db.DB
	router *chat.Router
	cfg    *config.Config
}

func New(database *db.DB, router *chat.Router, cfg *config.Config) *Handler {
	return &Handler{db: database, router: router, cfg: cfg}
}

// RequireAuth resolves the bearer token to a user and stores the id in
// ctx locals for the handlers behind it.
func (h *Handler) RequireAuth(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
	}
	user, err := h.db.GetSessionUser(token)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) || errors.Is(err, chat.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	c.Locals("userID", user.ID)
	c.Locals("token", token)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// WS 升级请求带不了自定义 header，走 query 参数
	return c.Query("token")
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
