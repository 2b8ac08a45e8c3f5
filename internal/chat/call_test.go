package chat

import (
	"encoding/json"
	"testing"
)

func callPair(t *testing.T, r *Router) (alice, bob *Client) {
	t.Helper()
	alice = connect(r, "alice", nil, nil)
	bob = connect(r, "bob", nil, nil)
	drain(alice)
	drain(bob)
	return alice, bob
}

// ringUp establishes a RINGING session from alice to bob.
func ringUp(t *testing.T, r *Router, alice, bob *Client) {
	t.Helper()
	dispatch(t, r, alice, EvCallRequest, callRequestPayload{ReceiverID: "bob", CallType: "video"})
	var ic incomingCallEvent
	if ev := takeEvent(t, bob, &ic); ev != EvIncomingCall {
		t.Fatalf("bob got %s, want %s", ev, EvIncomingCall)
	}
	if ic.CallerID != "alice" || ic.CallType != "video" {
		t.Fatalf("bad incoming_call payload: %+v", ic)
	}
}

func TestCallRequestOfflineCallee(t *testing.T) {
	store := newFakeStore("alice", "bob")
	r := NewRouter(store)
	alice := connect(r, "alice", nil, nil)
	drain(alice)

	dispatch(t, r, alice, EvCallRequest, callRequestPayload{ReceiverID: "bob"})

	var cf callFailedEvent
	if ev := takeEvent(t, alice, &cf); ev != EvCallFailed {
		t.Fatalf("alice got %s, want %s", ev, EvCallFailed)
	}
	if cf.ReceiverID != "bob" {
		t.Fatalf("bad call_failed payload: %+v", cf)
	}
	if r.calls.ActiveCalls() != 0 {
		t.Fatalf("no session may exist for an offline callee")
	}

	// a later answer from bob referencing alice is stale: dropped
	bob := connect(r, "bob", nil, nil)
	drain(bob)
	drain(alice)
	dispatch(t, r, bob, EvCallAnswer, callAnswerPayload{CallerID: "alice", Answer: "accepted"})
	wantNoEvent(t, alice)
	if r.calls.ActiveCalls() != 0 {
		t.Fatalf("stale answer created a session")
	}
}

func TestCallRequestDuplicatePair(t *testing.T) {
	store := newFakeStore("alice", "bob")
	r := NewRouter(store)
	alice, bob := callPair(t, r)
	ringUp(t, r, alice, bob)

	// 同一对用户已有会话：再次呼叫直接失败，也不建新会话
	dispatch(t, r, alice, EvCallRequest, callRequestPayload{ReceiverID: "bob"})
	if ev := takeEvent(t, alice, nil); ev != EvCallFailed {
		t.Fatalf("duplicate request got %s, want %s", ev, EvCallFailed)
	}
	wantNoEvent(t, bob)
	if r.calls.ActiveCalls() != 1 {
		t.Fatalf("duplicate request changed the session table: %d", r.calls.ActiveCalls())
	}

	// the callee ringing back hits the same unordered pair
	dispatch(t, r, bob, EvCallRequest, callRequestPayload{ReceiverID: "alice"})
	if ev := takeEvent(t, bob, nil); ev != EvCallFailed {
		t.Fatalf("reverse request got %s, want %s", ev, EvCallFailed)
	}
}

func TestCallAnswerAcceptedThenSignalRelay(t *testing.T) {
	store := newFakeStore("alice", "bob")
	r := NewRouter(store)
	alice, bob := callPair(t, r)
	ringUp(t, r, alice, bob)

	dispatch(t, r, bob, EvCallAnswer, callAnswerPayload{CallerID: "alice", Answer: "accepted"})
	var ca callAnsweredEvent
	if ev := takeEvent(t, alice, &ca); ev != EvCallAnswered {
		t.Fatalf("alice got %s, want %s", ev, EvCallAnswered)
	}
	if ca.Answer != "accepted" || ca.CalleeID != "bob" {
		t.Fatalf("bad call_answered payload: %+v", ca)
	}

	// opaque SDP/ICE relay, verbatim
	offer := json.RawMessage(`{"type":"offer","sdp":"v=0..."}`)
	dispatch(t, r, alice, EvCallOffer, callSignalPayload{ReceiverID: "bob", Offer: offer})
	var sig callSignalEvent
	if ev := takeEvent(t, bob, &sig); ev != EvOutCallOffer {
		t.Fatalf("bob got %s, want %s", ev, EvOutCallOffer)
	}
	if sig.SenderID != "alice" || string(sig.Offer) != string(offer) {
		t.Fatalf("offer not relayed verbatim: %+v", sig)
	}

	cand := json.RawMessage(`{"candidate":"candidate:1 1 UDP ..."}`)
	dispatch(t, r, bob, EvCallIceCandidate, callSignalPayload{ReceiverID: "alice", Candidate: cand})
	if ev := takeEvent(t, alice, &sig); ev != EvOutIceCandidate {
		t.Fatalf("alice got %s, want %s", ev, EvOutIceCandidate)
	}
	if string(sig.Candidate) != string(cand) {
		t.Fatalf("candidate not relayed verbatim")
	}
}

func TestCallAnswerRejectedDestroysSession(t *testing.T) {
	store := newFakeStore("alice", "bob")
	r := NewRouter(store)
	alice, bob := callPair(t, r)
	ringUp(t, r, alice, bob)

	dispatch(t, r, bob, EvCallAnswer, callAnswerPayload{CallerID: "alice", Answer: "rejected"})
	var ca callAnsweredEvent
	if ev := takeEvent(t, alice, &ca); ev != EvCallAnswered || ca.Answer != "rejected" {
		t.Fatalf("alice got %s/%s", ev, ca.Answer)
	}
	if r.calls.ActiveCalls() != 0 {
		t.Fatalf("rejected call left a session behind")
	}

	// post-rejection signaling is stale and must not resurrect the call
	dispatch(t, r, alice, EvCallOffer, callSignalPayload{ReceiverID: "bob", Offer: json.RawMessage(`{}`)})
	wantNoEvent(t, bob)
}

func TestCallEnd(t *testing.T) {
	store := newFakeStore("alice", "bob")
	r := NewRouter(store)
	alice, bob := callPair(t, r)
	ringUp(t, r, alice, bob)
	dispatch(t, r, bob, EvCallAnswer, callAnswerPayload{CallerID: "alice", Answer: "accepted"})
	drain(alice)

	dispatch(t, r, alice, EvCallEnd, callEndPayload{ReceiverID: "bob"})
	var ce callEndedEvent
	if ev := takeEvent(t, bob, &ce); ev != EvCallEnded || ce.SenderID != "alice" {
		t.Fatalf("bob got %s from %s", ev, ce.SenderID)
	}
	if r.calls.ActiveCalls() != 0 {
		t.Fatalf("ended call still tracked")
	}

	// ending again is stale: dropped quietly
	dispatch(t, r, alice, EvCallEnd, callEndPayload{ReceiverID: "bob"})
	wantNoEvent(t, bob)
	wantNoEvent(t, alice)
}

func TestDisconnectEndsActiveCall(t *testing.T) {
	store := newFakeStore("alice", "bob")
	r := NewRouter(store)
	alice, bob := callPair(t, r)
	ringUp(t, r, alice, bob)
	dispatch(t, r, bob, EvCallAnswer, callAnswerPayload{CallerID: "alice", Answer: "accepted"})
	drain(alice)

	r.Detach(alice)

	var ce callEndedEvent
	if ev := takeEvent(t, bob, &ce); ev != EvCallEnded || ce.SenderID != "alice" {
		t.Fatalf("bob got %s from %s, want call_ended from alice", ev, ce.SenderID)
	}
	if r.calls.ActiveCalls() != 0 {
		t.Fatalf("disconnect left the call session alive")
	}
}

func TestRingingCallerDisconnectNotifiesCallee(t *testing.T) {
	store := newFakeStore("alice", "bob")
	r := NewRouter(store)
	alice, bob := callPair(t, r)
	ringUp(t, r, alice, bob)

	r.Detach(alice)

	if ev := takeEvent(t, bob, nil); ev != EvCallEnded {
		t.Fatalf("bob got %s, want %s while ringing", ev, EvCallEnded)
	}
	if r.calls.ActiveCalls() != 0 {
		t.Fatalf("ringing session survived caller disconnect")
	}
}
