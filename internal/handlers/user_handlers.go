package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vatspratapsingh/yapper-chat-app/internal/chat"
	"github.com/vatspratapsingh/yapper-chat-app/internal/db"
)

// Me GET /api/users/me
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.db.GetUserByID(userID(c))
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(user)
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

// UpdateMe PUT /api/users/me
func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	id := userID(c)
	current, err := h.db.GetUserByID(id)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if req.Username == "" {
		req.Username = current.Username
	}

	if err := h.db.UpdateProfile(id, req.Username, req.Bio, req.Avatar); err != nil {
		if errors.Is(err, db.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "username already taken"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	user, err := h.db.GetUserByID(id)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(user)
}

// Search GET /api/users/search?q=
func (h *Handler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing query"})
	}
	users, err := h.db.SearchUsers(q, userID(c), 20)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(users)
}

// Block POST /api/users/:id/block
func (h *Handler) Block(c *fiber.Ctx) error {
	targetID := c.Params("id")
	if targetID == userID(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot block yourself"})
	}
	if _, err := h.db.GetUserByID(targetID); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if err := h.db.BlockUser(userID(c), targetID); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Unblock DELETE /api/users/:id/block
func (h *Handler) Unblock(c *fiber.Ctx) error {
	if err := h.db.UnblockUser(userID(c), c.Params("id")); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
