package chat

import "testing"

func TestPresenceFanOutOnConnectAndDisconnect(t *testing.T) {
	store := newFakeStore("alice", "bob", "carol", "dave")
	r := NewRouter(store)

	bob := connect(r, "bob", []string{"alice"}, nil)
	carol := connect(r, "carol", []string{"alice"}, nil)
	dave := connect(r, "dave", nil, nil) // not a friend of alice
	drain(bob)
	drain(carol)
	drain(dave)

	alice := connect(r, "alice", []string{"bob", "carol", "ghost"}, nil)

	for _, friend := range []*Client{bob, carol} {
		var fe friendStatusEvent
		if ev := takeEvent(t, friend, &fe); ev != EvFriendStatusChange {
			t.Fatalf("%s got %s, want %s", friend.UserID, ev, EvFriendStatusChange)
		}
		if fe.UserID != "alice" || fe.Status != StatusOnline {
			t.Fatalf("bad online fan-out: %+v", fe)
		}
	}
	wantNoEvent(t, dave)
	if store.statuses["alice"] != StatusOnline {
		t.Fatalf("online status not persisted")
	}

	r.Detach(alice)

	for _, friend := range []*Client{bob, carol} {
		var fe friendStatusEvent
		if ev := takeEvent(t, friend, &fe); ev != EvFriendStatusChange {
			t.Fatalf("%s got %s on disconnect, want %s", friend.UserID, ev, EvFriendStatusChange)
		}
		if fe.Status != StatusOffline {
			t.Fatalf("bad offline fan-out: %+v", fe)
		}
	}
	if store.statuses["alice"] != StatusOffline {
		t.Fatalf("offline status not persisted")
	}
	if r.Registry().Resolve("alice") != nil {
		t.Fatalf("alice still registered after detach")
	}
}

func TestDetachOfDisplacedConnectionIsQuiet(t *testing.T) {
	store := newFakeStore("alice", "bob")
	r := NewRouter(store)
	bob := connect(r, "bob", []string{"alice"}, nil)

	first := connect(r, "alice", []string{"bob"}, nil)
	second := connect(r, "alice", []string{"bob"}, nil)
	drain(bob)

	// 被顶掉的旧连接收尾时，用户并没有离线
	r.Detach(first)
	wantNoEvent(t, bob)
	if r.Registry().Resolve("alice") != second {
		t.Fatalf("displaced teardown removed the replacement")
	}

	fc := first.Conn.(*fakeConn)
	if !fc.closed {
		t.Fatalf("displaced connection left open")
	}
}
