package chat

import (
	"encoding/json"
	"log"
	"sync"
)

type callState int

const (
	callRinging callState = iota
	callConnected
)

// callSession is the ephemeral state for one call between two users. The
// broker never touches media; it only keeps enough state to route signaling
// to the right counterpart and drop stray frames after hangup.
type callSession struct {
	callerID string
	calleeID string
	state    callState
}

func (s *callSession) peerOf(userID string) string {
	if s.callerID == userID {
		return s.calleeID
	}
	return s.callerID
}

// CallBroker owns active call sessions, at most one per unordered user pair.
type CallBroker struct {
	registry *Registry

	// mu 覆盖会话表和请求时的"被叫在线"检查，避免并发 call_request
	// 给同一对用户建出两个会话
	mu       sync.Mutex
	sessions map[string]*callSession
}

func NewCallBroker(registry *Registry) *CallBroker {
	return &CallBroker{
		registry: registry,
		sessions: make(map[string]*callSession),
	}
}

// pairKey builds the unordered-pair session key.
func pairKey(a, c string) string {
	if a < c {
		return a + "|" + c
	}
	return c + "|" + a
}

// HandleRequest starts ringing the callee. No session is created when the
// callee is offline or the pair already has one; the caller gets call_failed
// immediately in both cases.
func (b *CallBroker) HandleRequest(c *Client, p *callRequestPayload) {
	b.mu.Lock()
	key := pairKey(c.UserID, p.ReceiverID)
	if _, exists := b.sessions[key]; exists {
		b.mu.Unlock()
		c.pushEvent(EvCallFailed, callFailedEvent{ReceiverID: p.ReceiverID, Message: "already in a call"})
		return
	}
	callee := b.registry.Resolve(p.ReceiverID)
	if callee == nil {
		b.mu.Unlock()
		c.pushEvent(EvCallFailed, callFailedEvent{ReceiverID: p.ReceiverID, Message: "user is offline"})
		return
	}
	b.sessions[key] = &callSession{callerID: c.UserID, calleeID: p.ReceiverID, state: callRinging}
	b.mu.Unlock()

	callee.pushEvent(EvIncomingCall, incomingCallEvent{CallerID: c.UserID, CallType: p.CallType})
}

// HandleAnswer resolves a ringing session: accepted promotes it to connected,
// rejected destroys it. Either way the caller hears the decision. Answers
// with no ringing session behind them are stale and dropped.
func (b *CallBroker) HandleAnswer(c *Client, data json.RawMessage) {
	var p callAnswerPayload
	if err := json.Unmarshal(data, &p); err != nil || p.CallerID == "" {
		return
	}
	if p.Answer != "accepted" && p.Answer != "rejected" {
		return
	}

	b.mu.Lock()
	key := pairKey(c.UserID, p.CallerID)
	sess, ok := b.sessions[key]
	if !ok || sess.state != callRinging || sess.calleeID != c.UserID {
		b.mu.Unlock()
		log.Printf("chat: dropping stale call answer from %s for %s", c.UserID, p.CallerID)
		return
	}
	if p.Answer == "accepted" {
		sess.state = callConnected
	} else {
		delete(b.sessions, key)
	}
	b.mu.Unlock()

	if caller := b.registry.Resolve(p.CallerID); caller != nil {
		caller.pushEvent(EvCallAnswered, callAnsweredEvent{CalleeID: c.UserID, Answer: p.Answer})
	}
}

// Relay forwards an opaque signaling blob (SDP offer/answer, ICE candidate)
// to the named peer, only while a session exists between the two. An offline
// peer means silent drop: timeout/retry is the media layer's problem.
func (b *CallBroker) Relay(c *Client, data json.RawMessage, outEvent string) {
	var p callSignalPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == "" {
		return
	}

	b.mu.Lock()
	_, ok := b.sessions[pairKey(c.UserID, p.ReceiverID)]
	b.mu.Unlock()
	if !ok {
		// 挂断后迟到的信令：丢弃，防止复活已结束的通话
		log.Printf("chat: dropping %s from %s with no active call", outEvent, c.UserID)
		return
	}

	if peer := b.registry.Resolve(p.ReceiverID); peer != nil {
		peer.pushEvent(outEvent, callSignalEvent{
			SenderID:  c.UserID,
			Offer:     p.Offer,
			Answer:    p.Answer,
			Candidate: p.Candidate,
		})
	}
}

// HandleEnd tears the session down in whatever state it is in and tells the
// peer, if reachable.
func (b *CallBroker) HandleEnd(c *Client, data json.RawMessage) {
	var p callEndPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == "" {
		return
	}

	b.mu.Lock()
	key := pairKey(c.UserID, p.ReceiverID)
	_, ok := b.sessions[key]
	if ok {
		delete(b.sessions, key)
	}
	b.mu.Unlock()
	if !ok {
		log.Printf("chat: dropping call end from %s with no active call", c.UserID)
		return
	}

	if peer := b.registry.Resolve(p.ReceiverID); peer != nil {
		peer.pushEvent(EvCallEnded, callEndedEvent{SenderID: c.UserID})
	}
}

// EndAllFor destroys every session involving userID (at most one under the
// single-device model, but the sweep is cheap) and notifies each remaining
// party. Called from disconnect teardown.
func (b *CallBroker) EndAllFor(userID string) {
	b.mu.Lock()
	var peers []string
	for key, sess := range b.sessions {
		if sess.callerID == userID || sess.calleeID == userID {
			peers = append(peers, sess.peerOf(userID))
			delete(b.sessions, key)
		}
	}
	b.mu.Unlock()

	for _, peerID := range peers {
		if peer := b.registry.Resolve(peerID); peer != nil {
			peer.pushEvent(EvCallEnded, callEndedEvent{SenderID: userID})
		}
	}
}

// ActiveCalls returns the number of live sessions.
func (b *CallBroker) ActiveCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}
