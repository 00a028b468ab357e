package ini

import (
	"strings"
	"testing"
)

func parseString(t *testing.T, input string) *Store {
	t.Helper()
	store, err := NewParser(strings.NewReader(input), "test.ini").Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return store
}

func TestParser_SectionAndAssignment(t *testing.T) {
	store := parseString(t, "[a]\nb=c\n")

	if got := store.Get("a", "b"); got != "c" {
		t.Errorf("Get(a, b) = %q, want %q", got, "c")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestParser_DefaultSection(t *testing.T) {
	store := parseString(t, "timeout=30\n[web]\nport=8080\n")

	if got := store.Get("", "timeout"); got != "30" {
		t.Errorf("Get(\"\", timeout) = %q, want %q", got, "30")
	}
	if got := store.Get("web", "port"); got != "8080" {
		t.Errorf("Get(web, port) = %q, want %q", got, "8080")
	}
}

func TestParser_EmptyValue(t *testing.T) {
	store := parseString(t, "k=\n")

	value, ok := store.Lookup("", "k")
	if !ok {
		t.Fatal("key k not stored")
	}
	if value != "" {
		t.Errorf("value = %q, want empty", value)
	}
}

func TestParser_CommentsMutateNothing(t *testing.T) {
	store := parseString(t, "; tuning knobs below\n[cache]\nsize=64\n; end of file\n")

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if got := store.Get("cache", "size"); got != "64" {
		t.Errorf("Get(cache, size) = %q, want %q", got, "64")
	}
}

func TestParser_InlineComment(t *testing.T) {
	store := parseString(t, "[s]\nk=v ; only in staging\n")

	if got := store.Get("s", "k"); got != "v" {
		t.Errorf("Get(s, k) = %q, want %q", got, "v")
	}
}

func TestParser_LastAssignmentWins(t *testing.T) {
	store := parseString(t, "k=1\nk=2\n")

	if got := store.Get("", "k"); got != "2" {
		t.Errorf("Get(\"\", k) = %q, want %q", got, "2")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestParser_SectionReopenedMerges(t *testing.T) {
	store := parseString(t, "[a]\nx=1\n[b]\ny=2\n[a]\nz=3\n")

	if got := store.Get("a", "x"); got != "1" {
		t.Errorf("Get(a, x) = %q, want %q", got, "1")
	}
	if got := store.Get("a", "z"); got != "3" {
		t.Errorf("Get(a, z) = %q, want %q", got, "3")
	}
	if got := store.Get("b", "y"); got != "2" {
		t.Errorf("Get(b, y) = %q, want %q", got, "2")
	}
}

func TestParser_EmptySectionName(t *testing.T) {
	// A whitespace-only section name is the empty identifier, which maps
	// to the default section
	store := parseString(t, "top=1\n[ ]\nunder=2\n")

	if got := store.Get("", "top"); got != "1" {
		t.Errorf("Get(\"\", top) = %q, want %q", got, "1")
	}
	if got := store.Get("", "under"); got != "2" {
		t.Errorf("Get(\"\", under) = %q, want %q", got, "2")
	}
}

func TestParser_HeadersAloneStoreNothing(t *testing.T) {
	store := parseString(t, "[a]\n[b]\n")

	if len(store.Sections()) != 0 {
		t.Errorf("Sections() = %v, want none", store.Sections())
	}
}

func TestParser_Empty(t *testing.T) {
	store := parseString(t, "")

	if store == nil {
		t.Fatal("store is nil")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestParser_BlankLinesOnly(t *testing.T) {
	store := parseString(t, "\n\n\n")

	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestParser_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLine  int
		wantPrev  string
		wantToken string
		wantNext  string
		wantEOF   bool
	}{
		{
			name:      "header cut by newline",
			input:     "[a\nb=c\n",
			wantLine:  1,
			wantPrev:  "a",
			wantToken: "LF",
			wantNext:  "b",
		},
		{
			name:      "equals at line start",
			input:     "=v\n",
			wantLine:  1,
			wantPrev:  "",
			wantToken: "=",
			wantNext:  "v",
		},
		{
			name:      "adjacent brackets",
			input:     "[]\n",
			wantLine:  1,
			wantPrev:  "[",
			wantToken: "]",
			wantNext:  "LF",
		},
		{
			name:      "key without equals",
			input:     "[s]\nkey value\n",
			wantLine:  2,
			wantPrev:  "key value",
			wantToken: "LF",
			wantNext:  "",
		},
		{
			name:      "semicolon then newline",
			input:     ";\n",
			wantLine:  1,
			wantPrev:  ";",
			wantToken: "LF",
			wantNext:  "",
		},
		{
			name:      "input ends after equals",
			input:     "k=",
			wantLine:  1,
			wantPrev:  "k",
			wantToken: "=",
			wantNext:  "EOF",
			wantEOF:   true,
		},
		{
			name:      "input ends inside header",
			input:     "[a",
			wantLine:  1,
			wantPrev:  "[",
			wantToken: "a",
			wantNext:  "EOF",
			wantEOF:   true,
		},
		{
			name:      "trailing whitespace after last line",
			input:     "k=v\n ",
			wantLine:  2,
			wantPrev:  "LF",
			wantToken: "",
			wantNext:  "EOF",
			wantEOF:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(strings.NewReader(tt.input), "test.ini").Parse()
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}

			synErr, ok := err.(*SyntaxError)
			if !ok {
				t.Fatalf("error type = %T, want *SyntaxError", err)
			}
			if synErr.Source != "test.ini" {
				t.Errorf("Source = %q, want %q", synErr.Source, "test.ini")
			}
			if synErr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", synErr.Line, tt.wantLine)
			}
			if synErr.Prev != tt.wantPrev {
				t.Errorf("Prev = %q, want %q", synErr.Prev, tt.wantPrev)
			}
			if synErr.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", synErr.Token, tt.wantToken)
			}
			if synErr.Next != tt.wantNext {
				t.Errorf("Next = %q, want %q", synErr.Next, tt.wantNext)
			}
			if synErr.UnexpectedEOF != tt.wantEOF {
				t.Errorf("UnexpectedEOF = %v, want %v", synErr.UnexpectedEOF, tt.wantEOF)
			}
		})
	}
}

func TestParser_ErrorMessage(t *testing.T) {
	_, err := NewParser(strings.NewReader("[a\n"), "db.ini").Parse()
	if err == nil {
		t.Fatal("Parse() expected error, got nil")
	}

	want := `syntax error in "db.ini" at line 1: ...a ->LF<- ...`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestParser_UnexpectedEOFMessage(t *testing.T) {
	_, err := NewParser(strings.NewReader("k="), "db.ini").Parse()
	if err == nil {
		t.Fatal("Parse() expected error, got nil")
	}

	want := `unexpected end of file in "db.ini" at line 1: ...k ->=<- EOF`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestParser_PartialStoreOnError(t *testing.T) {
	store := NewStore()
	err := NewParser(strings.NewReader("a=1\n[bad\nb=2\n"), "test.ini").ParseInto(store)
	if err == nil {
		t.Fatal("ParseInto() expected error, got nil")
	}

	// Commits before the fault stay in the store; the caller discards it
	if got := store.Get("", "a"); got != "1" {
		t.Errorf("Get(\"\", a) = %q, want %q", got, "1")
	}
	if _, ok := store.Lookup("", "b"); ok {
		t.Error("key after the fault was stored")
	}
}

func TestParser_ClearThenReparse(t *testing.T) {
	store := NewStore()
	if err := NewParser(strings.NewReader("[one]\nk=1\n"), "one.ini").ParseInto(store); err != nil {
		t.Fatalf("first ParseInto() error = %v", err)
	}

	store.Clear()
	if err := NewParser(strings.NewReader("[two]\nk=2\n"), "two.ini").ParseInto(store); err != nil {
		t.Fatalf("second ParseInto() error = %v", err)
	}

	if _, ok := store.Lookup("one", "k"); ok {
		t.Error("cleared section still present")
	}
	if got := store.Get("two", "k"); got != "2" {
		t.Errorf("Get(two, k) = %q, want %q", got, "2")
	}
}

func TestParser_ReadFailurePropagates(t *testing.T) {
	_, err := NewParser(failingReader{}, "stream").Parse()
	if err == nil {
		t.Fatal("Parse() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "device offline") {
		t.Errorf("error = %v, want the read failure message", err)
	}
}
