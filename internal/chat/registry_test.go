package chat

import "testing"

func TestRegisterReplacesPriorConnection(t *testing.T) {
	reg := NewRegistry()

	first := NewClient("alice", "alice", &fakeConn{}, nil, nil, 16)
	if prev := reg.Register(first); prev != nil {
		t.Fatalf("expected no displaced client, got %s", prev.UserID)
	}

	second := NewClient("alice", "alice", &fakeConn{}, nil, nil, 16)
	prev := reg.Register(second)
	if prev != first {
		t.Fatalf("expected first connection to be displaced")
	}
	if reg.Count() != 1 {
		t.Fatalf("expected exactly one entry, got %d", reg.Count())
	}
	if reg.Resolve("alice") != second {
		t.Fatalf("resolve should return the replacement connection")
	}
}

func TestUnregisterByDisplacedConnectionKeepsReplacement(t *testing.T) {
	reg := NewRegistry()
	first := NewClient("alice", "alice", &fakeConn{}, nil, nil, 16)
	second := NewClient("alice", "alice", &fakeConn{}, nil, nil, 16)
	reg.Register(first)
	reg.Register(second)

	if reg.Unregister(first) {
		t.Fatalf("displaced connection must not own the registry entry")
	}
	if reg.Resolve("alice") != second {
		t.Fatalf("replacement was removed by the displaced connection's teardown")
	}

	if !reg.Unregister(second) {
		t.Fatalf("current connection should unregister")
	}
	if reg.Resolve("alice") != nil {
		t.Fatalf("expected no entry after unregister")
	}
	// idempotent
	if reg.Unregister(second) {
		t.Fatalf("second unregister should be a no-op")
	}
}

func TestSetStatus(t *testing.T) {
	reg := NewRegistry()
	c := NewClient("alice", "alice", &fakeConn{}, nil, nil, 16)
	reg.Register(c)

	reg.SetStatus("alice", StatusAway)
	if got := reg.Status("alice"); got != StatusAway {
		t.Fatalf("expected away, got %s", got)
	}

	// 非法状态：静默忽略
	reg.SetStatus("alice", "invisible")
	if got := reg.Status("alice"); got != StatusAway {
		t.Fatalf("invalid status mutated the entry: %s", got)
	}

	// unknown user is a no-op, not an insert
	reg.SetStatus("bob", StatusOnline)
	if reg.Resolve("bob") != nil {
		t.Fatalf("SetStatus must not create entries")
	}
	if got := reg.Status("bob"); got != StatusOffline {
		t.Fatalf("unregistered users read as offline, got %s", got)
	}
}
