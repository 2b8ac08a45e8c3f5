package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/vatspratapsingh/yapper-chat-app/internal/chat"
	"github.com/vatspratapsingh/yapper-chat-app/internal/config"
	"github.com/vatspratapsingh/yapper-chat-app/internal/db"
	"github.com/vatspratapsingh/yapper-chat-app/internal/handlers"
)

func main() {
	cfg := config.Load()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		log.Fatalf("Failed to create uploads dir: %v", err)
	}

	router := chat.NewRouter(database)
	h := handlers.New(database, router, cfg)

	app := fiber.New()

	// 静态资源：前端构建产物 + 上传文件
	app.Static("/", "./public")
	app.Static("/uploads", cfg.UploadsDir)

	// Auth
	app.Post("/api/auth/register", h.Register)
	app.Post("/api/auth/login", h.Login)
	app.Post("/api/auth/logout", h.RequireAuth, h.Logout)

	// Users
	app.Get("/api/users/me", h.RequireAuth, h.Me)
	app.Put("/api/users/me", h.RequireAuth, h.UpdateMe)
	app.Get("/api/users/search", h.RequireAuth, h.Search)
	app.Post("/api/users/:id/block", h.RequireAuth, h.Block)
	app.Delete("/api/users/:id/block", h.RequireAuth, h.Unblock)

	// Friends
	app.Post("/api/friends/requests", h.RequireAuth, h.SendFriendRequest)
	app.Get("/api/friends/requests", h.RequireAuth, h.ListFriendRequests)
	app.Put("/api/friends/requests/:id", h.RequireAuth, h.RespondFriendRequest)
	app.Get("/api/friends", h.RequireAuth, h.ListFriends)
	app.Delete("/api/friends/:id", h.RequireAuth, h.RemoveFriend)

	// Messaging
	app.Get("/api/messages/:userID", h.RequireAuth, h.History)
	app.Get("/api/presence/:userID", h.RequireAuth, h.Presence)
	app.Post("/api/upload", h.RequireAuth, h.Upload)

	// Realtime
	app.Get("/api/ws", websocket.New(h.WSHandler))

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		_ = app.Shutdown()
	}()

	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
