package chat

import "encoding/json"

// 入站事件名（客户端 -> 服务器）
const (
	EvSendMessage      = "send_message"
	EvTypingStart      = "typing_start"
	EvTypingStop       = "typing_stop"
	EvMarkRead         = "mark_read"
	EvStatusChange     = "status_change"
	EvCallRequest      = "video_call_request"
	EvCallAnswer       = "video_call_answer"
	EvCallOffer        = "video_call_offer"
	EvCallAnswerSDP    = "video_call_answer_sdp"
	EvCallIceCandidate = "video_call_ice_candidate"
	EvCallEnd          = "video_call_end"
)

// 出站事件名（服务器 -> 客户端）
const (
	EvNewMessage         = "new_message"
	EvMessageSent        = "message_sent"
	EvUserTyping         = "user_typing"
	EvUserStoppedTyping  = "user_stopped_typing"
	EvMessageRead        = "message_read"
	EvFriendStatusChange = "friend_status_change"
	EvIncomingCall       = "incoming_call"
	EvCallAnswered       = "call_answered"
	EvOutCallOffer       = "call_offer"
	EvOutCallAnswerSDP   = "call_answer_sdp"
	EvOutIceCandidate    = "ice_candidate"
	EvCallEnded          = "call_ended"
	EvCallFailed         = "call_failed"
	EvError              = "error"
)

// Envelope is the wire frame for every realtime event, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads. Call signaling blobs stay opaque RawMessage: the server
// relays them verbatim and never inspects SDP or ICE contents.

type sendMessagePayload struct {
	ReceiverID  string `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"`
	ReplyTo     string `json:"reply_to,omitempty"`
}

type typingPayload struct {
	ReceiverID string `json:"receiver_id"`
}

type markReadPayload struct {
	MessageID string `json:"message_id"`
}

type statusChangePayload struct {
	Status string `json:"status"`
}

type callRequestPayload struct {
	ReceiverID string `json:"receiver_id"`
	CallType   string `json:"call_type,omitempty"` // audio, video
}

type callAnswerPayload struct {
	CallerID string `json:"caller_id"`
	Answer   string `json:"answer"` // accepted, rejected
}

type callSignalPayload struct {
	ReceiverID string          `json:"receiver_id"`
	Offer      json.RawMessage `json:"offer,omitempty"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
}

type callEndPayload struct {
	ReceiverID string `json:"receiver_id"`
}

// Outbound payloads.

type typingEvent struct {
	SenderID string `json:"sender_id"`
}

type messageReadEvent struct {
	MessageID string `json:"message_id"`
	ReaderID  string `json:"reader_id"`
}

type friendStatusEvent struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

type incomingCallEvent struct {
	CallerID string `json:"caller_id"`
	CallType string `json:"call_type,omitempty"`
}

type callAnsweredEvent struct {
	CalleeID string `json:"callee_id"`
	Answer   string `json:"answer"`
}

type callSignalEvent struct {
	SenderID  string          `json:"sender_id"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type callEndedEvent struct {
	SenderID string `json:"sender_id"`
}

type callFailedEvent struct {
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
}

type errorEvent struct {
	Message string `json:"message"`
}

// marshalEvent wraps data into an Envelope frame. Payload structs are our
// own, so a marshal failure here is a programming error; return nil and let
// push drop it rather than kill the connection.
func marshalEvent(event string, data any) []byte {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil
		}
		raw = b
	}
	b, err := json.Marshal(&Envelope{Event: event, Data: raw})
	if err != nil {
		return nil
	}
	return b
}
