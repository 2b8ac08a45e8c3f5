package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vatspratapsingh/yapper-chat-app/internal/db"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register POST /api/auth/register
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Email == "" || len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username, email and a password of 6+ chars required"})
	}

	user, err := h.db.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "username or email already taken"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	token, err := h.db.CreateSession(user.ID)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token, "user": user})
}

// Login POST /api/auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	user, err := h.db.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrBadCredential) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	token, err := h.db.CreateSession(user.ID)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"token": token, "user": user})
}

// Logout POST /api/auth/logout
func (h *Handler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("token").(string)
	if token != "" {
		_ = h.db.DeleteSession(token)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
