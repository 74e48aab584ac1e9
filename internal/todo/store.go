// Package todo implements the per-project task list. Tasks use
// hierarchical dotted IDs (1, 2, 2.1, 2.1.1) and one of three states,
// written in tool calls as "[id][status] content" lines.
package todo

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var markerToStatus = map[string]string{
	" ": StatusPending,
	"~": StatusInProgress,
	"x": StatusCompleted,
}

var statusToMarker = map[string]string{
	StatusPending:    "[ ]",
	StatusInProgress: "[~]",
	StatusCompleted:  "[x]",
}

// taskLine matches "[id][status] content".
var taskLine = regexp.MustCompile(`^\[([0-9.]+)\]\s*\[([ ~x])\]\s*(.+)$`)

// Task is one todo entry.
type Task struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
}

// Config holds todo store configuration.
type Config struct {
	DataDir string
}

// Store is the persistent todo list backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the todo database under cfg.DataDir
// with WAL mode and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("todo: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(cfg.DataDir, "todos.db"))
	if err != nil {
		return nil, fmt.Errorf("todo: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("todo: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("todo: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS todos (
			project    TEXT NOT NULL,
			task_id    TEXT NOT NULL,
			status     TEXT NOT NULL,
			content    TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (project, task_id)
		);
	`)
	return err
}

// UpdateTasks parses "[id][status] content" lines and upserts each:
// a new ID adds a task, an existing ID updates its status and content.
// Unparseable lines are skipped. Returns the full formatted list.
func (s *Store) UpdateTasks(project, lines string) (string, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, line := range strings.Split(lines, "\n") {
		task, ok := parseTaskLine(line)
		if !ok {
			continue
		}
		_, err := s.db.Exec(
			`INSERT INTO todos (project, task_id, status, content, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(project, task_id)
			 DO UPDATE SET status = excluded.status, content = excluded.content, updated_at = excluded.updated_at`,
			project, task.ID, task.Status, task.Content, now,
		)
		if err != nil {
			return "", fmt.Errorf("todo: upsert task %s: %w", task.ID, err)
		}
	}
	return s.Format(project)
}

// RemoveTasks deletes the given task IDs and returns the full
// formatted list.
func (s *Store) RemoveTasks(project string, ids []string) (string, error) {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, err := s.db.Exec(
			`DELETE FROM todos WHERE project = ? AND task_id = ?`, project, id,
		); err != nil {
			return "", fmt.Errorf("todo: remove task %s: %w", id, err)
		}
	}
	return s.Format(project)
}

// List returns the project's tasks sorted by hierarchical ID.
func (s *Store) List(project string) ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT task_id, status, content, updated_at FROM todos WHERE project = ?`,
		project,
	)
	if err != nil {
		return nil, fmt.Errorf("todo: list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Status, &t.Content, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("todo: scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return lessID(tasks[i].ID, tasks[j].ID)
	})
	return tasks, nil
}

// Format returns the project's full task list as display text.
func (s *Store) Format(project string) (string, error) {
	tasks, err := s.List(project)
	if err != nil {
		return "", err
	}
	return FormatTasks(tasks), nil
}

// FormatTasks renders tasks in the "[id][status] content" wire format.
func FormatTasks(tasks []Task) string {
	if len(tasks) == 0 {
		return "No tasks yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tasks (%d):\n\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&sb, "[%s]%s %s\n", t.ID, statusToMarker[t.Status], t.Content)
	}
	return sb.String()
}

func parseTaskLine(line string) (Task, bool) {
	m := taskLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Task{}, false
	}
	return Task{
		ID:      m[1],
		Status:  markerToStatus[m[2]],
		Content: strings.TrimSpace(m[3]),
	}, true
}

// lessID orders dotted hierarchical IDs numerically: 2 < 2.1 < 2.2 < 10.
// Malformed segments sort last so they stay visible.
func lessID(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			if (aerr == nil) != (berr == nil) {
				return aerr == nil
			}
			if as[i] != bs[i] {
				return as[i] < bs[i]
			}
			continue
		}
		if an != bn {
			return an < bn
		}
	}
	return len(as) < len(bs)
}
