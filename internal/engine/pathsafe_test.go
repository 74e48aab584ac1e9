package engine

import "testing"

func TestNormalizeRel_Valid(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"main.go", "main.go"},
		{"src/auth/login.go", "src/auth/login.go"},
		{"./src/auth.go", "src/auth.go"},
		{"src//double.go", "src/double.go"},
		{`src\win\style.go`, "src/win/style.go"},
		{"src/a/../b.go", "src/b.go"},
	}
	for _, c := range cases {
		got, err := NormalizeRel(c.in)
		if err != nil {
			t.Errorf("NormalizeRel(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeRel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeRel_Forbidden(t *testing.T) {
	cases := []string{
		"",
		".",
		"/etc/passwd",
		"../../etc/passwd",
		"..",
		"src/../../outside.go",
		`C:\windows\system32`,
		`c:/windows`,
		`\\server\share`,
	}
	for _, c := range cases {
		if got, err := NormalizeRel(c); err == nil {
			t.Errorf("NormalizeRel(%q) = %q, want error", c, got)
		}
	}
}
