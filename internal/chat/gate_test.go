package chat

import (
	"errors"
	"testing"
)

func TestGateOrdering(t *testing.T) {
	store := newFakeStore("alice", "bob")
	gate := NewGate(store)

	tests := []struct {
		name       string
		friends    []string
		blocked    []string
		receiverID string
		kind       string
		want       error
	}{
		{"unknown receiver", nil, nil, "ghost", KindMessage, ErrReceiverNotFound},
		{"message between friends", []string{"bob"}, nil, "bob", KindMessage, nil},
		{"message to stranger", nil, nil, "bob", KindMessage, ErrNotFriends},
		// 屏蔽优先于好友关系：拉黑的前好友仍然被拒
		{"blocked beats friendship", []string{"bob"}, []string{"bob"}, "bob", KindMessage, ErrBlocked},
		{"call to stranger allowed", nil, nil, "bob", KindCall, nil},
		{"call to blocked denied", nil, []string{"bob"}, "bob", KindCall, ErrBlocked},
		{"call to unknown denied", nil, nil, "ghost", KindCall, ErrReceiverNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := NewClient("alice", "alice", &fakeConn{}, tt.friends, tt.blocked, 16)
			got := gate.CanInteract(sender, tt.receiverID, tt.kind)
			if !errors.Is(got, tt.want) {
				t.Errorf("CanInteract() = %v, want %v", got, tt.want)
			}
		})
	}
}
