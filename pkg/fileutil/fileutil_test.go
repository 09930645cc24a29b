package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFindFile(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"Staircase.bgc", "UPPER.BGC", "lower.txt"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("test"), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
	}
	fsys := Dir(tmpDir)

	tests := []struct {
		name       string
		searchName string
		shouldFind bool
		expected   string
	}{
		{"exact match", "Staircase.bgc", true, "Staircase.bgc"},
		{"lowercase search", "staircase.bgc", true, "Staircase.bgc"},
		{"uppercase search", "STAIRCASE.BGC", true, "Staircase.bgc"},
		{"mixed case search for uppercase file", "Upper.bgc", true, "UPPER.BGC"},
		{"missing file", "missing.bgc", false, ""},
	}

	for i, tt := range tests {
		got, err := FindFile(fsys, ".", tt.searchName)
		if !tt.shouldFind {
			if err == nil {
				t.Fatalf("tests[%d] - %s: expected error, got path %q", i, tt.name, got)
			}
			if !errors.Is(err, fs.ErrNotExist) {
				t.Fatalf("tests[%d] - %s: expected fs.ErrNotExist, got %v", i, tt.name, err)
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

func TestReadFile(t *testing.T) {
	fsys := fstest.MapFS{
		"scripts/Step.BGC": {Data: []byte("int Step(bool c) => 1;")},
	}
	data, err := ReadFile(fsys, "/scripts/step.bgc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "int Step(bool c) => 1;" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFindByExt(t *testing.T) {
	fsys := fstest.MapFS{
		"b.bgc":        {Data: []byte("")},
		"a.BGC":        {Data: []byte("")},
		"nested/c.Bgc": {Data: []byte("")},
		"notes.txt":    {Data: []byte("")},
	}
	got, err := FindByExt(fsys, ".", ".bgc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a.BGC", "b.bgc", "nested/c.Bgc"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tests[%d] - expected %q, got %q", i, want[i], got[i])
		}
	}
}
