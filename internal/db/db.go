package db

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/vatspratapsingh/yapper-chat-app/internal/chat"
	"github.com/vatspratapsingh/yapper-chat-app/internal/models"
)

var (
	ErrNoRows        = errors.New("no rows found")
	ErrUserExists    = errors.New("user already exists")
	ErrBadCredential = errors.New("invalid credentials")
	ErrDuplicate     = errors.New("already exists")
)

type DB struct {
	conn *sql.DB
}

func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'offline',
			last_seen TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender TEXT NOT NULL,
			receiver TEXT NOT NULL,
			content TEXT NOT NULL,
			message_type TEXT NOT NULL DEFAULT 'text',
			reply_to TEXT NOT NULL DEFAULT '',
			read INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS friend_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL,
			UNIQUE(from_id, to_id)
		)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			user_a TEXT NOT NULL,
			user_b TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY(user_a, user_b)
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			blocker TEXT NOT NULL,
			blocked TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY(blocker, blocked)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender, receiver, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_to ON friend_requests(to_id, status)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// ---- users ----

func (db *DB) CreateUser(username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		Password: string(hash),
		Status:   chat.StatusOffline,
		LastSeen: time.Now().UTC(),
	}

	_, err = db.conn.Exec(
		`INSERT INTO users (id, username, email, password, status, last_seen) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.Password, user.Status, user.LastSeen.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

// Authenticate checks email+password and returns the user on success.
func (db *DB) Authenticate(email, password string) (*models.User, error) {
	user, err := db.getUser(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, ErrBadCredential
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrBadCredential
	}

	return user, nil
}

const userColumns = `id, username, email, password, avatar, bio, status, last_seen`

func (db *DB) getUser(query string, args ...any) (*models.User, error) {
	var user models.User
	var lastSeen string
	err := db.conn.QueryRow(query, args...).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password,
		&user.Avatar, &user.Bio, &user.Status, &lastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	user.LastSeen, _ = time.Parse(time.RFC3339, lastSeen)
	return &user, nil
}

func (db *DB) GetUserByID(id string) (*models.User, error) {
	user, err := db.getUser(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	return user, err
}

// SearchUsers matches username or email substrings, excluding the searcher.
func (db *DB) SearchUsers(q, excludeID string, limit int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + q + "%"
	rows, err := db.conn.Query(
		`SELECT `+userColumns+` FROM users
		 WHERE id != ? AND (username LIKE ? OR email LIKE ?)
		 ORDER BY username LIMIT ?`,
		excludeID, pattern, pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		var lastSeen string
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.Password,
			&user.Avatar, &user.Bio, &user.Status, &lastSeen,
		); err != nil {
			return nil, err
		}
		user.LastSeen, _ = time.Parse(time.RFC3339, lastSeen)
		users = append(users, &user)
	}
	return users, rows.Err()
}

func (db *DB) UpdateProfile(id, username, bio, avatar string) error {
	res, err := db.conn.Exec(
		`UPDATE users SET username = ?, bio = ?, avatar = ? WHERE id = ?`,
		username, bio, avatar, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return err
	}
	return requireRow(res)
}

func (db *DB) UpdateUserStatus(id, status string) error {
	_, err := db.conn.Exec(
		`UPDATE users SET status = ?, last_seen = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), id,
	)
	return err
}

// ---- auth sessions ----

func (db *DB) CreateSession(userID string) (string, error) {
	token := uuid.NewString()
	_, err := db.conn.Exec(
		`INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, userID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (db *DB) GetSessionUser(token string) (*models.User, error) {
	var userID string
	err := db.conn.QueryRow(`SELECT user_id FROM sessions WHERE token = ?`, token).Scan(&userID)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return db.GetUserByID(userID)
}

func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// ---- helpers ----

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRows
	}
	return nil
}
