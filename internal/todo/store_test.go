package todo

import (
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpdateTasks_AddAndUpdate(t *testing.T) {
	s := newTestStore(t)

	out, err := s.UpdateTasks("/p", "[1][ ] Set up project\n[2][ ] Implement auth")
	if err != nil {
		t.Fatalf("UpdateTasks: %v", err)
	}
	if !strings.Contains(out, "[1][ ] Set up project") {
		t.Errorf("add failed: %q", out)
	}

	// Same ID updates status and content.
	out, err = s.UpdateTasks("/p", "[2][~] Implement auth module")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[2][~] Implement auth module") {
		t.Errorf("update failed: %q", out)
	}
	if strings.Contains(out, "[2][ ] Implement auth\n") {
		t.Errorf("stale row survived: %q", out)
	}

	tasks, err := s.List("/p")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Errorf("got %d tasks, want 2", len(tasks))
	}
}

func TestUpdateTasks_SkipsUnparseableLines(t *testing.T) {
	s := newTestStore(t)

	out, err := s.UpdateTasks("/p", "not a task line\n[1][x] Done thing\n\n[bad format")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[1][x] Done thing") {
		t.Errorf("valid line lost: %q", out)
	}
	tasks, _ := s.List("/p")
	if len(tasks) != 1 {
		t.Errorf("got %d tasks, want 1", len(tasks))
	}
}

func TestHierarchicalSort(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpdateTasks("/p",
		"[10][ ] ten\n[2][ ] two\n[2.1][ ] two-one\n[2.10][ ] two-ten\n[2.2][ ] two-two\n[1][ ] one"); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.List("/p")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	want := "1,2,2.1,2.2,2.10,10"
	if got := strings.Join(ids, ","); got != want {
		t.Errorf("sort order = %s, want %s", got, want)
	}
}

func TestRemoveTasks(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpdateTasks("/p", "[1][ ] a\n[2][ ] b\n[2.1][ ] c"); err != nil {
		t.Fatal(err)
	}
	out, err := s.RemoveTasks("/p", []string{"2", "2.1"})
	if err != nil {
		t.Fatalf("RemoveTasks: %v", err)
	}
	if strings.Contains(out, "[2]") {
		t.Errorf("removed tasks still listed: %q", out)
	}
	if !strings.Contains(out, "[1][ ] a") {
		t.Errorf("surviving task lost: %q", out)
	}
}

func TestProjectIsolation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpdateTasks("/a", "[1][ ] task for a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateTasks("/b", "[1][ ] task for b"); err != nil {
		t.Fatal(err)
	}

	out, err := s.Format("/a")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "task for b") {
		t.Errorf("project isolation broken: %q", out)
	}
}

func TestFormatTasks_Empty(t *testing.T) {
	if got := FormatTasks(nil); got != "No tasks yet." {
		t.Errorf("empty format = %q", got)
	}
}

func TestParseTaskLine(t *testing.T) {
	cases := []struct {
		line   string
		ok     bool
		status string
	}{
		{"[1][ ] pending thing", true, StatusPending},
		{"[2.3][~] wip thing", true, StatusInProgress},
		{"[4][x] done thing", true, StatusCompleted},
		{"  [5][ ] leading spaces ok", true, StatusPending},
		{"no brackets", false, ""},
		{"[6][?] unknown marker", false, ""},
		{"[abc][ ] non-numeric id", false, ""},
	}
	for _, c := range cases {
		task, ok := parseTaskLine(c.line)
		if ok != c.ok {
			t.Errorf("parseTaskLine(%q) ok = %v, want %v", c.line, ok, c.ok)
			continue
		}
		if ok && task.Status != c.status {
			t.Errorf("parseTaskLine(%q) status = %q, want %q", c.line, task.Status, c.status)
		}
	}
}
