package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/vatspratapsingh/yapper-chat-app/internal/chat"
	"github.com/vatspratapsingh/yapper-chat-app/internal/db"
	"github.com/vatspratapsingh/yapper-chat-app/internal/models"
)

type friendRequestBody struct {
	UserID string `json:"user_id"`
}

// SendFriendRequest POST /api/friends/requests
func (h *Handler) SendFriendRequest(c *fiber.Ctx) error {
	var req friendRequestBody
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing user_id"})
	}

	me := userID(c)
	if req.UserID == me {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot friend yourself"})
	}
	if _, err := h.db.GetUserByID(req.UserID); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if blocked, err := h.db.HasBlock(me, req.UserID); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	} else if blocked {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "cannot send request to this user"})
	}
	if friends, err := h.db.AreFriends(me, req.UserID); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	} else if friends {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already friends"})
	}

	fr, err := h.db.CreateFriendRequest(me, req.UserID)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "request already sent"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.Status(fiber.StatusCreated).JSON(fr)
}

// ListFriendRequests GET /api/friends/requests
func (h *Handler) ListFriendRequests(c *fiber.Ctx) error {
	reqs, err := h.db.PendingRequests(userID(c))
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if reqs == nil {
		reqs = []*models.FriendRequest{} // JSON [] 而不是 null
	}
	return c.JSON(reqs)
}

type respondRequestBody struct {
	Action string `json:"action"` // accept, reject
}

// RespondFriendRequest PUT /api/friends/requests/:id
//
// Accepting while the other user has an open socket does not refresh their
// relationship snapshot; the new friendship is picked up on reconnect.
func (h *Handler) RespondFriendRequest(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request id"})
	}
	var body respondRequestBody
	if err := c.BodyParser(&body); err != nil || (body.Action != "accept" && body.Action != "reject") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "action must be accept or reject"})
	}

	if err := h.db.RespondFriendRequest(id, userID(c), body.Action == "accept"); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no such pending request"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListFriends GET /api/friends
func (h *Handler) ListFriends(c *fiber.Ctx) error {
	ids, err := h.db.FriendIDs(userID(c))
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	registry := h.router.Registry()
	friends := make([]fiber.Map, 0, len(ids))
	for _, id := range ids {
		user, err := h.db.GetUserByID(id)
		if err != nil {
			continue
		}
		friends = append(friends, fiber.Map{
			"user":   user,
			"status": registry.Status(id),
		})
	}
	return c.JSON(friends)
}

// RemoveFriend DELETE /api/friends/:id
func (h *Handler) RemoveFriend(c *fiber.Ctx) error {
	if err := h.db.RemoveFriend(userID(c), c.Params("id")); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not friends"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
