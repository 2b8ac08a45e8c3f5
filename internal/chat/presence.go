package chat

// BroadcastStatus pushes a friend_status_change to every currently-connected
// friend of c. Runs on connect (online), explicit status changes and
// disconnect (offline). No batching: each call is independent and walks the
// connect-time friend snapshot once.
func (r *Router) BroadcastStatus(c *Client, status string) {
	for friendID := range c.Friends {
		if friend := r.registry.Resolve(friendID); friend != nil {
			friend.pushEvent(EvFriendStatusChange, friendStatusEvent{
				UserID: c.UserID,
				Status: status,
			})
		}
	}
}
