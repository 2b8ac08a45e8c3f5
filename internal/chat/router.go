package chat

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vatspratapsingh/yapper-chat-app/internal/models"
)

// Router is the realtime dispatch core. One instance per process, injected
// into the websocket handler; it owns the registry and the call broker so
// tests can build isolated copies.
type Router struct {
	registry *Registry
	store    Store
	gate     *Gate
	calls    *CallBroker
}

func NewRouter(store Store) *Router {
	reg := NewRegistry()
	return &Router{
		registry: reg,
		store:    store,
		gate:     NewGate(store),
		calls:    NewCallBroker(reg),
	}
}

// Registry exposes the connection registry (HTTP layer reads presence off it).
func (r *Router) Registry() *Registry {
	return r.registry
}

// Attach registers a freshly authenticated connection and fans out "online"
// to its connected friends. A prior connection for the same user is closed;
// the user never went away, so no offline fan-out for the displaced handle.
func (r *Router) Attach(c *Client) {
	if prev := r.registry.Register(c); prev != nil {
		prev.Close()
	}
	if err := r.store.UpdateUserStatus(c.UserID, StatusOnline); err != nil {
		log.Printf("chat: persist online status for %s: %v", c.UserID, err)
	}
	r.BroadcastStatus(c, StatusOnline)
}

// Detach is the single disconnect teardown path: unregister, end any call
// involving the user, fan out "offline". All of it runs before Detach
// returns — a half-torn-down connection is worse than a slow one.
func (r *Router) Detach(c *Client) {
	c.Close()
	if !r.registry.Unregister(c) {
		// 已被同一用户的新连接顶掉，注册表/通话/在线状态归新连接管
		return
	}
	r.calls.EndAllFor(c.UserID)
	if err := r.store.UpdateUserStatus(c.UserID, StatusOffline); err != nil {
		log.Printf("chat: persist offline status for %s: %v", c.UserID, err)
	}
	r.BroadcastStatus(c, StatusOffline)
}

// Dispatch routes one inbound event. Unknown events get an error frame back
// instead of killing the connection.
func (r *Router) Dispatch(c *Client, env *Envelope) {
	switch env.Event {
	case EvSendMessage:
		r.handleSendMessage(c, env.Data)
	case EvTypingStart:
		r.handleTyping(c, env.Data, EvUserTyping)
	case EvTypingStop:
		r.handleTyping(c, env.Data, EvUserStoppedTyping)
	case EvMarkRead:
		r.handleMarkRead(c, env.Data)
	case EvStatusChange:
		r.handleStatusChange(c, env.Data)
	case EvCallRequest:
		r.handleCallRequest(c, env.Data)
	case EvCallAnswer:
		r.calls.HandleAnswer(c, env.Data)
	case EvCallOffer:
		r.calls.Relay(c, env.Data, EvOutCallOffer)
	case EvCallAnswerSDP:
		r.calls.Relay(c, env.Data, EvOutCallAnswerSDP)
	case EvCallIceCandidate:
		r.calls.Relay(c, env.Data, EvOutIceCandidate)
	case EvCallEnd:
		r.calls.HandleEnd(c, env.Data)
	default:
		c.pushEvent(EvError, errorEvent{Message: "unknown event: " + env.Event})
	}
}

// handleSendMessage persists then relays. The message_sent ack is the user's
// delivery contract, so it only goes out after persistence succeeds, and a
// failure becomes exactly one error event — never a silent drop.
func (r *Router) handleSendMessage(c *Client, data json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == "" || p.Content == "" {
		c.pushEvent(EvError, errorEvent{Message: "invalid message"})
		return
	}

	if err := r.gate.CanInteract(c, p.ReceiverID, KindMessage); err != nil {
		c.pushEvent(EvError, errorEvent{Message: err.Error()})
		return
	}

	msgType := p.MessageType
	if msgType == "" {
		msgType = "text"
	}
	msg := &models.Message{
		ID:          uuid.NewString(),
		SenderID:    c.UserID,
		ReceiverID:  p.ReceiverID,
		Content:     p.Content,
		MessageType: msgType,
		ReplyTo:     p.ReplyTo,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.store.SaveMessage(msg); err != nil {
		log.Printf("chat: save message %s -> %s: %v", c.UserID, p.ReceiverID, err)
		c.pushEvent(EvError, errorEvent{Message: "failed to send message"})
		return
	}

	// 接收方在线才投递，离线静默丢弃（尽力而为）；回执总是发给发送方
	if receiver := r.registry.Resolve(p.ReceiverID); receiver != nil {
		receiver.pushEvent(EvNewMessage, msg)
	}
	c.pushEvent(EvMessageSent, msg)
}

// handleTyping relays a pure ephemeral signal: no gate, no persistence,
// silent drop when the receiver is offline.
func (r *Router) handleTyping(c *Client, data json.RawMessage, outEvent string) {
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == "" {
		return
	}
	if receiver := r.registry.Resolve(p.ReceiverID); receiver != nil {
		receiver.pushEvent(outEvent, typingEvent{SenderID: c.UserID})
	}
}

// handleMarkRead is ownership-authorized: only the message's receiver may
// mark it read. On success the original sender is notified if online.
func (r *Router) handleMarkRead(c *Client, data json.RawMessage) {
	var p markReadPayload
	if err := json.Unmarshal(data, &p); err != nil || p.MessageID == "" {
		c.pushEvent(EvError, errorEvent{Message: "invalid message id"})
		return
	}

	msg, err := r.store.GetMessage(p.MessageID)
	if err != nil {
		c.pushEvent(EvError, errorEvent{Message: "message not found"})
		return
	}
	if msg.ReceiverID != c.UserID {
		c.pushEvent(EvError, errorEvent{Message: "not your message"})
		return
	}
	if err := r.store.MarkMessageRead(p.MessageID); err != nil {
		log.Printf("chat: mark read %s: %v", p.MessageID, err)
		c.pushEvent(EvError, errorEvent{Message: "failed to mark as read"})
		return
	}

	if sender := r.registry.Resolve(msg.SenderID); sender != nil {
		sender.pushEvent(EvMessageRead, messageReadEvent{MessageID: msg.ID, ReaderID: c.UserID})
	}
}

// handleStatusChange drops invalid statuses, updates the registry, persists
// best effort, then fans out to friends.
func (r *Router) handleStatusChange(c *Client, data json.RawMessage) {
	var p statusChangePayload
	if err := json.Unmarshal(data, &p); err != nil || !ValidStatus(p.Status) {
		return
	}
	r.registry.SetStatus(c.UserID, p.Status)
	if err := r.store.UpdateUserStatus(c.UserID, p.Status); err != nil {
		log.Printf("chat: persist status %s for %s: %v", p.Status, c.UserID, err)
	}
	r.BroadcastStatus(c, p.Status)
}

// handleCallRequest runs the gate (calls: block/existence checks only) and
// then hands off to the broker.
func (r *Router) handleCallRequest(c *Client, data json.RawMessage) {
	var p callRequestPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == "" {
		c.pushEvent(EvError, errorEvent{Message: "invalid call request"})
		return
	}
	if err := r.gate.CanInteract(c, p.ReceiverID, KindCall); err != nil {
		c.pushEvent(EvError, errorEvent{Message: err.Error()})
		return
	}
	r.calls.HandleRequest(c, &p)
}
