package engine

import (
	"strings"
	"testing"
)

func TestParseReferenceTags_WellFormed(t *testing.T) {
	text := "Look at <code><path>src/auth.go</path><lines>10,20</lines></code> here."
	tags := parseReferenceTags(text)
	if len(tags) != 1 {
		t.Fatalf("got %d tags, want 1", len(tags))
	}
	tag := tags[0]
	if tag.State != TagWellFormed {
		t.Fatal("tag should be well-formed")
	}
	if tag.Path != "src/auth.go" || tag.LineStart != 10 || tag.LineEnd != 20 {
		t.Errorf("parsed %q %d,%d", tag.Path, tag.LineStart, tag.LineEnd)
	}
	if got := text[tag.Start:tag.End]; got != tag.Raw {
		t.Errorf("offsets don't cover Raw: %q vs %q", got, tag.Raw)
	}
	if !strings.HasPrefix(tag.Raw, "<code>") || !strings.HasSuffix(tag.Raw, "</code>") {
		t.Errorf("Raw = %q, want full block", tag.Raw)
	}
}

func TestParseReferenceTags_WhitespaceTolerance(t *testing.T) {
	text := "<code><path> src/auth.go </path><lines> 3 , 7 </lines></code>"
	tags := parseReferenceTags(text)
	if len(tags) != 1 || tags[0].State != TagWellFormed {
		t.Fatalf("tags = %+v", tags)
	}
	if tags[0].Path != "src/auth.go" {
		t.Errorf("path = %q", tags[0].Path)
	}
	if tags[0].LineStart != 3 || tags[0].LineEnd != 7 {
		t.Errorf("lines = %d,%d", tags[0].LineStart, tags[0].LineEnd)
	}
}

func TestParseReferenceTags_MalformedVariants(t *testing.T) {
	cases := []string{
		"<code>no children</code>",
		"<code><path>a.go</path></code>",
		"<code><path>a.go</path><lines>5</lines></code>",
		"<code><path>a.go</path><lines>x,y</lines></code>",
		"<code><path>a.go</path><lines>1,2</lines>",
	}
	for _, c := range cases {
		tags := parseReferenceTags(c)
		if len(tags) != 1 {
			t.Errorf("%q: got %d tags, want 1", c, len(tags))
			continue
		}
		if tags[0].State != TagMalformed {
			t.Errorf("%q: want malformed", c)
		}
		// Malformed spans cover only the opener so surrounding text
		// survives composition.
		if tags[0].End-tags[0].Start != len("<code>") {
			t.Errorf("%q: malformed span = [%d,%d)", c, tags[0].Start, tags[0].End)
		}
	}
}

func TestParseReferenceTags_CountMatchesOpeners(t *testing.T) {
	text := "a <code>broken b <code><path>x.go</path><lines>1,2</lines></code> c <code>also broken"
	tags := parseReferenceTags(text)
	if want := strings.Count(text, "<code>"); len(tags) != want {
		t.Fatalf("got %d tags, want %d (one per opener attempt)", len(tags), want)
	}
	if tags[0].State != TagMalformed || tags[1].State != TagWellFormed || tags[2].State != TagMalformed {
		t.Errorf("states = %v %v %v", tags[0].State, tags[1].State, tags[2].State)
	}
}

func TestParseReferenceTags_MalformedDoesNotSwallowLater(t *testing.T) {
	// The first opener has no close tag before the second opener's
	// block; the second tag must still parse.
	text := "<code><path>oops <code><path>b.go</path><lines>1,1</lines></code>"
	tags := parseReferenceTags(text)

	var wellFormed int
	for _, tag := range tags {
		if tag.State == TagWellFormed {
			wellFormed++
			if tag.Path != "b.go" {
				t.Errorf("well-formed path = %q, want b.go", tag.Path)
			}
		}
	}
	if wellFormed != 1 {
		t.Errorf("well-formed count = %d, want 1", wellFormed)
	}
}

func TestParseReferenceTags_NoOverlap(t *testing.T) {
	text := "x<code><path>a.go</path><lines>1,2</lines></code><code><path>b.go</path><lines>3,4</lines></code>y"
	tags := parseReferenceTags(text)
	if len(tags) != 2 {
		t.Fatalf("got %d tags", len(tags))
	}
	if tags[0].End > tags[1].Start {
		t.Errorf("spans overlap: [%d,%d) and [%d,%d)",
			tags[0].Start, tags[0].End, tags[1].Start, tags[1].End)
	}
}

func TestParseReferenceTags_Empty(t *testing.T) {
	if tags := parseReferenceTags("plain prose, no tags at all"); len(tags) != 0 {
		t.Errorf("got %d tags, want 0", len(tags))
	}
}
