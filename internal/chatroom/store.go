// Package chatroom implements the per-project message log used for
// multi-agent coordination. Each project directory (identified by its
// absolute path) has its own room; messages survive server restarts.
package chatroom

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// recentWindow and recentLimit define the "recent context" returned
// with every send: the last few messages other agents posted lately.
const (
	recentWindow = 30 * time.Minute
	recentLimit  = 4
)

// Message is a single chatroom entry.
type Message struct {
	ID        string `json:"message_id"`
	Project   string `json:"-"`
	AgentName string `json:"agent_name"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SendResult pairs a freshly posted message with the room's recent
// context, so the sender immediately sees what others are doing.
type SendResult struct {
	New    Message   `json:"new_message"`
	Recent []Message `json:"recent_messages"`
}

// Config holds chatroom store configuration.
type Config struct {
	DataDir string
}

// Store is the persistent chatroom backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the chatroom database under
// cfg.DataDir with WAL mode and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("chatroom: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(cfg.DataDir, "chatrooms.db"))
	if err != nil {
		return nil, fmt.Errorf("chatroom: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("chatroom: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("chatroom: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			project    TEXT NOT NULL,
			agent_name TEXT NOT NULL,
			message    TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_project ON messages(project, id);
	`)
	return err
}

// SendMessage appends a message to the project's room and returns it
// together with the recent context window (the new message included,
// up to 4 messages from the past 30 minutes).
func (s *Store) SendMessage(project, agentName, message string) (*SendResult, error) {
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	res, err := s.db.Exec(
		`INSERT INTO messages (project, agent_name, message, created_at) VALUES (?, ?, ?, ?)`,
		project, agentName, message, now,
	)
	if err != nil {
		return nil, fmt.Errorf("chatroom: insert message: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("chatroom: last insert id: %w", err)
	}

	recent, err := s.recentMessages(project)
	if err != nil {
		return nil, err
	}

	return &SendResult{
		New: Message{
			ID:        messageID(rowID),
			Project:   project,
			AgentName: agentName,
			Message:   message,
			Timestamp: now,
		},
		Recent: recent,
	}, nil
}

// ReadMessages returns up to limit of the project's most recent
// messages, in chronological order.
func (s *Store) ReadMessages(project string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, agent_name, message, created_at
		 FROM messages WHERE project = ?
		 ORDER BY id DESC LIMIT ?`,
		project, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chatroom: read messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	msgs, err := scanMessages(rows, project)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

func (s *Store) recentMessages(project string) ([]Message, error) {
	cutoff := time.Now().UTC().Add(-recentWindow).Format("2006-01-02T15:04:05.000Z")
	rows, err := s.db.Query(
		`SELECT id, agent_name, message, created_at
		 FROM messages WHERE project = ? AND created_at >= ?
		 ORDER BY id DESC LIMIT ?`,
		project, cutoff, recentLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("chatroom: recent messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	msgs, err := scanMessages(rows, project)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

func scanMessages(rows *sql.Rows, project string) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		var rowID int64
		var m Message
		if err := rows.Scan(&rowID, &m.AgentName, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("chatroom: scan message: %w", err)
		}
		m.ID = messageID(rowID)
		m.Project = project
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func reverse(msgs []Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

func messageID(rowID int64) string {
	return fmt.Sprintf("msg_%06d", rowID)
}

// FormatMessages renders messages for display, chronological order,
// one timestamped line per message.
func FormatMessages(msgs []Message) string {
	if len(msgs) == 0 {
		return "No messages in this chatroom yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Chatroom messages (%d):\n\n", len(msgs))
	for _, m := range msgs {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.Timestamp, m.AgentName, m.Message)
	}
	return sb.String()
}
