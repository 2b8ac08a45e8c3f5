package chat

import "errors"

// Interaction kinds the gate distinguishes.
const (
	KindMessage = "message"
	KindCall    = "call"
)

// Denial reasons, surfaced to the sender as error events.
var (
	ErrReceiverNotFound = errors.New("user not found")
	ErrBlocked          = errors.New("you cannot interact with this user")
	ErrNotFriends       = errors.New("you can only message friends")
)

// Gate decides whether a sender may interact with a receiver, from the
// sender's connection-time relationship snapshot.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// CanInteract returns nil when the interaction is allowed, or one of the
// denial errors. Order matters: the block check runs before the friends
// check so a blocked-but-formerly-friended user is still denied.
//
// Calls deliberately skip the friends requirement: any non-blocked,
// existing user can be rung. That mirrors how messaging and calling are
// authorized in the app, asymmetric as it is.
func (g *Gate) CanInteract(sender *Client, receiverID, kind string) error {
	if _, err := g.store.GetUserByID(receiverID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrReceiverNotFound
		}
		return err
	}
	if sender.Blocked[receiverID] {
		return ErrBlocked
	}
	if kind == KindMessage && !sender.Friends[receiverID] {
		return ErrNotFriends
	}
	return nil
}
