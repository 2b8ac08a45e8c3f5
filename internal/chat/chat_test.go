package chat

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/vatspratapsingh/yapper-chat-app/internal/models"
)

// fakeConn satisfies ConnLike; tests read pushed frames straight off the
// client's Send queue instead of running the write pump.
type fakeConn struct {
	closed bool
}

func (f *fakeConn) ReadMessage() (int, []byte, error)  { return 0, nil, io.EOF }
func (f *fakeConn) WriteMessage(_ int, _ []byte) error { return nil }
func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

var errStoreDown = errors.New("store down")

// fakeStore is the in-memory persistence collaborator.
type fakeStore struct {
	users    map[string]*models.User
	messages map[string]*models.Message
	saved    int
	failSave bool
	statuses map[string]string
}

func newFakeStore(userIDs ...string) *fakeStore {
	s := &fakeStore{
		users:    make(map[string]*models.User),
		messages: make(map[string]*models.Message),
		statuses: make(map[string]string),
	}
	for _, id := range userIDs {
		s.users[id] = &models.User{ID: id, Username: id}
	}
	return s
}

func (s *fakeStore) GetUserByID(id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) SaveMessage(m *models.Message) error {
	if s.failSave {
		return errStoreDown
	}
	s.saved++
	s.messages[m.ID] = m
	return nil
}

func (s *fakeStore) GetMessage(id string) (*models.Message, error) {
	if m, ok := s.messages[id]; ok {
		return m, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) MarkMessageRead(id string) error {
	m, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	m.Read = true
	return nil
}

func (s *fakeStore) FriendIDs(string) ([]string, error)  { return nil, nil }
func (s *fakeStore) BlockedIDs(string) ([]string, error) { return nil, nil }

func (s *fakeStore) UpdateUserStatus(id, status string) error {
	s.statuses[id] = status
	return nil
}

// connect attaches a client with the given snapshot to the router.
func connect(r *Router, id string, friends, blocked []string) *Client {
	c := NewClient(id, id, &fakeConn{}, friends, blocked, 16)
	r.Attach(c)
	return c
}

func dispatch(t *testing.T, r *Router, c *Client, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	r.Dispatch(c, &Envelope{Event: event, Data: data})
}

// takeEvent pops the next queued outbound event and decodes its data into out.
func takeEvent(t *testing.T, c *Client, out any) string {
	t.Helper()
	select {
	case data := <-c.Send:
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame for %s: %v", c.UserID, err)
		}
		if out != nil && env.Data != nil {
			if err := json.Unmarshal(env.Data, out); err != nil {
				t.Fatalf("bad %s payload: %v", env.Event, err)
			}
		}
		return env.Event
	default:
		t.Fatalf("no event queued for %s", c.UserID)
		return ""
	}
}

func wantNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected event for %s: %s", c.UserID, data)
	default:
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}
