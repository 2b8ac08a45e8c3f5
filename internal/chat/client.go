package chat

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client is one live connection for one authenticated user.
type Client struct {
	UserID   string
	Username string
	Conn     ConnLike
	Send     chan []byte

	// 连接期间的好友/屏蔽快照：上线时加载一次，连接保持打开时不会
	// 跟随好友请求/拉黑的变化刷新（重连后生效）。Blocked 含双向屏蔽。
	Friends map[string]bool
	Blocked map[string]bool

	status string // guarded by the registry lock

	mu     sync.Mutex // guards closed + sends into Send
	closed bool
}

type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// NewClient wires a connection handle to a user identity with its
// relationship snapshot already loaded.
func NewClient(userID, username string, conn ConnLike, friends, blocked []string, sendBuffer int) *Client {
	c := &Client{
		UserID:   userID,
		Username: username,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Friends:  make(map[string]bool, len(friends)),
		Blocked:  make(map[string]bool, len(blocked)),
		status:   StatusOnline,
	}
	for _, id := range friends {
		c.Friends[id] = true
	}
	for _, id := range blocked {
		c.Blocked[id] = true
	}
	return c
}

// ReadPump decodes inbound frames and hands them to the router, in arrival
// order. Returns when the connection dies; teardown is the caller's job.
func (c *Client) ReadPump(r *Router) {
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		r.Dispatch(c, &env)
	}
}

func (c *Client) WritePump() {
	for data := range c.Send {
		_ = c.Conn.WriteMessage(websocket.TextMessage, data)
	}
}

// push queues an outbound frame without blocking; a full queue drops the
// frame (slow consumer) rather than stalling another user's event stream.
// The lock keeps pushes off a closed queue: other users' pumps may still
// hold this client from a Resolve that raced its teardown.
func (c *Client) push(data []byte) {
	if data == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// pushEvent marshals and queues one outbound event.
func (c *Client) pushEvent(event string, payload any) {
	c.push(marshalEvent(event, payload))
}

// Close shuts the send queue and the underlying connection. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
	_ = c.Conn.Close()
}
