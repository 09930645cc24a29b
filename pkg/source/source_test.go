package source

import (
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func mustEncode(t *testing.T, tr transform.Transformer, s string) []byte {
	t.Helper()
	out, _, err := transform.String(tr, s)
	if err != nil {
		t.Fatalf("failed to encode test data: %v", err)
	}
	return []byte(out)
}

func TestDecode(t *testing.T) {
	sjis := mustEncode(t, japanese.ShiftJIS.NewEncoder(), `string s = "こんにちは";`)
	latin := mustEncode(t, charmap.Windows1252.NewEncoder(), `string s = "café";`)

	tests := []struct {
		name     string
		input    []byte
		encoding string
		expected string
		wantErr  bool
	}{
		{"plain utf-8", []byte("int x = 1;"), "", "int x = 1;", false},
		{"utf-8 bom is stripped", append([]byte{0xEF, 0xBB, 0xBF}, "int x;"...), "", "int x;", false},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'i', 0, 'n', 0, 't', 0}, "", "int", false},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0, 'i', 0, 'n', 0, 't'}, "", "int", false},
		{"shift_jis", sjis, "shift_jis", `string s = "こんにちは";`, false},
		{"sjis alias", sjis, "sjis", `string s = "こんにちは";`, false},
		{"windows-1252", latin, "windows-1252", `string s = "café";`, false},
		{"invalid utf-8", []byte{'a', 0xFF, 'b'}, "utf-8", "", true},
	}

	for i, tt := range tests {
		enc, err := LookupEncoding(tt.encoding)
		if err != nil {
			t.Fatalf("tests[%d] - %s: LookupEncoding failed: %v", i, tt.name, err)
		}
		got, err := Decode(tt.input, enc)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("tests[%d] - %s: expected error, got %q", i, tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error: %v", i, tt.name, err)
		}
		if got != tt.expected {
			t.Fatalf("tests[%d] - %s: expected %q, got %q", i, tt.name, tt.expected, got)
		}
	}
}

func TestLookupEncodingUnknown(t *testing.T) {
	if _, err := LookupEncoding("no-such-encoding"); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestLoadExtractsMetadata(t *testing.T) {
	fsys := fstest.MapFS{
		"Staircase.BGC": {Data: []byte(strings.Join([]string{
			`#info title "Two-down one-up staircase"`,
			`#info author lab`,
			`#info paradigm adaptive`,
			`int Step(bool c) => 1;`,
		}, "\n"))},
	}
	loader, err := NewLoader(fsys, "")
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	src, err := loader.Load("staircase.bgc")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if src.Name != "Staircase.BGC" {
		t.Errorf("expected name Staircase.BGC, got %q", src.Name)
	}
	if src.Metadata.Title != "Two-down one-up staircase" {
		t.Errorf("unexpected title %q", src.Metadata.Title)
	}
	if src.Metadata.Author != "lab" {
		t.Errorf("unexpected author %q", src.Metadata.Author)
	}
	if src.Metadata.Custom["paradigm"] != "adaptive" {
		t.Errorf("unexpected custom metadata %v", src.Metadata.Custom)
	}
	lines := strings.Split(src.Content, "\n")
	if len(lines) != 4 || lines[0] != "" || lines[3] != "int Step(bool c) => 1;" {
		t.Errorf("directive lines must be blanked in place, got %q", src.Content)
	}
}

func TestLoadAll(t *testing.T) {
	fsys := fstest.MapFS{
		"b.bgc":      {Data: []byte("int b;")},
		"a.BGC":      {Data: []byte("int a;")},
		"readme.txt": {Data: []byte("not a script")},
	}
	loader, err := NewLoader(fsys, "utf-8")
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	sources, err := loader.LoadAll(".", "")
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Content != "int a;" || sources[1].Content != "int b;" {
		t.Errorf("unexpected order or content: %q, %q", sources[0].Content, sources[1].Content)
	}

	if _, err := loader.LoadAll(".", ".none"); err == nil {
		t.Error("expected error when no scripts match")
	}
}
