package cli

import (
	"reflect"
	"testing"
	"time"
)

func TestParseArgs_ValidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name:     "スクリプトのみ",
			args:     []string{"staircase.bgc"},
			expected: Config{ScriptPath: "staircase.bgc"},
		},
		{
			name:     "タイムアウト指定（秒）",
			args:     []string{"--timeout", "10", "a.bgc"},
			expected: Config{ScriptPath: "a.bgc", Timeout: 10 * time.Second, TimeoutSet: true},
		},
		{
			name:     "タイムアウト指定（短縮形、duration）",
			args:     []string{"-t", "250ms", "a.bgc"},
			expected: Config{ScriptPath: "a.bgc", Timeout: 250 * time.Millisecond, TimeoutSet: true},
		},
		{
			name:     "ログレベル指定（短縮形）",
			args:     []string{"-l", "error", "a.bgc"},
			expected: Config{ScriptPath: "a.bgc", LogLevel: "error"},
		},
		{
			name: "複数の -call",
			args: []string{"--call", "Add(1, 2)", "a.bgc", "--call", `Greet("x y")`},
			expected: Config{
				ScriptPath: "a.bgc",
				Calls:      []string{"Add(1, 2)", `Greet("x y")`},
			},
		},
		{
			name: "アルゴリズム実行と設定ファイル",
			args: []string{"a.bgc", "--algorithm", "TTF", "-c", "s.yaml", "--mode", "legacy", "--log-format=json"},
			expected: Config{
				ScriptPath:     "a.bgc",
				ConfigPath:     "s.yaml",
				Trials:         "TTF",
				InitializeMode: "legacy",
				LogFormat:      "json",
			},
		},
		{
			name:     "エンコーディング指定",
			args:     []string{"--encoding", "shift_jis", "legacy.bgc"},
			expected: Config{ScriptPath: "legacy.bgc", Encoding: "shift_jis"},
		},
		{
			name:     "ヘルプ表示（スクリプトなし）",
			args:     []string{"-h"},
			expected: Config{ShowHelp: true},
		},
		{
			name:     "ヘルプの後に位置引数",
			args:     []string{"--help", "a.bgc"},
			expected: Config{ScriptPath: "a.bgc", ShowHelp: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TIMEOUT", "")
			t.Setenv("LOG_LEVEL", "")
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(*config, tt.expected) {
				t.Errorf("ParseArgs(%q) =\n%+v\nwant\n%+v", tt.args, *config, tt.expected)
			}
		})
	}
}

func TestParseArgs_Environment(t *testing.T) {
	t.Setenv("TIMEOUT", "3")
	t.Setenv("LOG_LEVEL", "DEBUG")

	config, err := ParseArgs([]string{"a.bgc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Timeout != 3*time.Second || !config.TimeoutSet {
		t.Errorf("Timeout = %v (set=%v), want 3s", config.Timeout, config.TimeoutSet)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.LogLevel)
	}

	// コマンドラインフラグが優先
	config, err = ParseArgs([]string{"-t", "1", "-l", "warn", "a.bgc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Timeout != time.Second || config.LogLevel != "warn" {
		t.Errorf("flags must win over the environment: %+v", config)
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "負のタイムアウト", args: []string{"--timeout", "-10", "a.bgc"}},
		{name: "不正なタイムアウト", args: []string{"--timeout", "soon", "a.bgc"}},
		{name: "無効なログレベル", args: []string{"--log-level", "invalid", "a.bgc"}},
		{name: "無効なログレベル（短縮形）", args: []string{"-l", "trace", "a.bgc"}},
		{name: "スクリプトなし", args: []string{"-t", "5"}},
		{name: "スクリプトが2つ", args: []string{"a.bgc", "b.bgc"}},
		{name: "未知のフラグ", args: []string{"--headless", "a.bgc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TIMEOUT", "")
			t.Setenv("LOG_LEVEL", "")
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReorderArgs(t *testing.T) {
	got := reorderArgs([]string{"a.bgc", "-t", "5", "--help", "--call=F()", "-l", "debug"})
	want := []string{"-t", "5", "--help", "--call=F()", "-l", "debug", "a.bgc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reorderArgs = %q, want %q", got, want)
	}
}
