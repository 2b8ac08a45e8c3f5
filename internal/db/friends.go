package db

import (
	"database/sql"
	"time"

	"github.com/vatspratapsingh/yapper-chat-app/internal/models"
)

// Friendships are stored once per pair with the two ids in sorted order.
func pairOrder(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// ---- friend requests ----

func (db *DB) CreateFriendRequest(fromID, toID string) (*models.FriendRequest, error) {
	now := time.Now().UTC()
	res, err := db.conn.Exec(
		`INSERT INTO friend_requests (from_id, to_id, status, created_at) VALUES (?, ?, 'pending', ?)`,
		fromID, toID, now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.FriendRequest{ID: id, FromID: fromID, ToID: toID, Status: "pending", CreatedAt: now}, nil
}

// PendingRequests lists incoming pending requests for a user.
func (db *DB) PendingRequests(toID string) ([]*models.FriendRequest, error) {
	rows, err := db.conn.Query(
		`SELECT id, from_id, to_id, status, created_at FROM friend_requests
		 WHERE to_id = ? AND status = 'pending' ORDER BY created_at`, toID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		var createdAt string
		if err := rows.Scan(&req.ID, &req.FromID, &req.ToID, &req.Status, &createdAt); err != nil {
			return nil, err
		}
		req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		reqs = append(reqs, &req)
	}
	return reqs, rows.Err()
}

// RespondFriendRequest lets the addressee accept or reject a pending
// request; accepting also records the friendship.
func (db *DB) RespondFriendRequest(id int64, toID string, accept bool) error {
	var fromID string
	err := db.conn.QueryRow(
		`SELECT from_id FROM friend_requests WHERE id = ? AND to_id = ? AND status = 'pending'`,
		id, toID,
	).Scan(&fromID)
	if err == sql.ErrNoRows {
		return ErrNoRows
	}
	if err != nil {
		return err
	}

	status := "rejected"
	if accept {
		status = "accepted"
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE friend_requests SET status = ? WHERE id = ?`, status, id); err != nil {
		return err
	}
	if accept {
		a, b := pairOrder(fromID, toID)
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO friendships (user_a, user_b, created_at) VALUES (?, ?, ?)`,
			a, b, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ---- friendships ----

func (db *DB) FriendIDs(userID string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT user_a, user_b FROM friendships WHERE user_a = ? OR user_b = ?`,
		userID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, err
		}
		if a == userID {
			ids = append(ids, b)
		} else {
			ids = append(ids, a)
		}
	}
	return ids, rows.Err()
}

func (db *DB) AreFriends(a, b string) (bool, error) {
	x, y := pairOrder(a, b)
	var n int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM friendships WHERE user_a = ? AND user_b = ?`, x, y,
	).Scan(&n)
	return n > 0, err
}

func (db *DB) RemoveFriend(a, b string) error {
	x, y := pairOrder(a, b)
	res, err := db.conn.Exec(`DELETE FROM friendships WHERE user_a = ? AND user_b = ?`, x, y)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ---- blocks ----

func (db *DB) BlockUser(blocker, blocked string) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO blocks (blocker, blocked, created_at) VALUES (?, ?, ?)`,
		blocker, blocked, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (db *DB) UnblockUser(blocker, blocked string) error {
	_, err := db.conn.Exec(
		`DELETE FROM blocks WHERE blocker = ? AND blocked = ?`, blocker, blocked,
	)
	return err
}

// BlockedIDs merges both directions: users this user blocked and users who
// blocked this user. Either direction forbids interaction, and folding them
// into one snapshot keeps the gate a plain set lookup.
func (db *DB) BlockedIDs(userID string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT blocked FROM blocks WHERE blocker = ?
		 UNION
		 SELECT blocker FROM blocks WHERE blocked = ?`,
		userID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasBlock reports whether either user has blocked the other.
func (db *DB) HasBlock(a, b string) (bool, error) {
	var n int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM blocks
		 WHERE (blocker = ? AND blocked = ?) OR (blocker = ? AND blocked = ?)`,
		a, b, b, a,
	).Scan(&n)
	return n > 0, err
}
