package handlers

import (
	"errors"
	"log"
	"path/filepath"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vatspratapsingh/yapper-chat-app/internal/chat"
)

// WSHandler GET /api/ws?token=
//
// Attaches an authenticated websocket to the realtime core: resolve the
// token, load the relationship snapshot, register, pump until the socket
// dies, then run the full teardown.
func (h *Handler) WSHandler(c *websocket.Conn) {
	token := c.Query("token")
	user, err := h.db.GetSessionUser(token)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"event": chat.EvError, "data": fiber.Map{"message": "invalid token"}})
		_ = c.Close()
		return
	}

	friends, err := h.db.FriendIDs(user.ID)
	if err != nil {
		log.Printf("ws: load friends for %s: %v", user.ID, err)
		_ = c.Close()
		return
	}
	blocked, err := h.db.BlockedIDs(user.ID)
	if err != nil {
		log.Printf("ws: load blocks for %s: %v", user.ID, err)
		_ = c.Close()
		return
	}

	client := chat.NewClient(user.ID, user.Username, c, friends, blocked, h.cfg.SendBuffer)
	h.router.Attach(client)
	defer h.router.Detach(client)

	go client.WritePump()
	client.ReadPump(h.router)
}

// History GET /api/messages/:userID?limit=
func (h *Handler) History(c *fiber.Ctx) error {
	me := userID(c)
	other := c.Params("userID")

	// 只能查好友会话的历史记录
	friends, err := h.db.AreFriends(me, other)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if !friends {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not friends"})
	}

	msgs, err := h.db.Conversation(me, other, c.QueryInt("limit", 50))
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(msgs)
}

// Upload POST /api/upload (multipart field "file")
func (h *Handler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
	}

	// 用 uuid 重命名，保留扩展名，避免路径注入
	name := uuid.NewString() + filepath.Ext(file.Filename)
	if err := c.SaveFile(file, filepath.Join(h.cfg.UploadsDir, name)); err != nil {
		log.Printf("upload: save %s: %v", name, err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": "/uploads/" + name})
}

// Presence GET /api/presence/:userID — current status from the registry,
// falling back to the persisted status for offline users.
func (h *Handler) Presence(c *fiber.Ctx) error {
	id := c.Params("userID")
	user, err := h.db.GetUserByID(id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	status := h.router.Registry().Status(id)
	return c.JSON(fiber.Map{"user_id": id, "status": status, "last_seen": user.LastSeen})
}
