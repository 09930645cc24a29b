package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}
	if cfg.Timeout != 5*time.Second || cfg.LogLevel != "info" || cfg.InitializeMode != InitializeAuto {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		check   func(*Config) bool
		wantErr string
	}{
		{
			name:  "empty file keeps defaults",
			yaml:  "",
			check: func(c *Config) bool { return c.MaxCallDepth == Default().MaxCallDepth },
		},
		{
			name: "all fields",
			yaml: strings.Join([]string{
				"log_level: debug",
				"log_format: json",
				"timeout: 250ms",
				"max_call_depth: 64",
				"source_encoding: shift_jis",
				"user_data_path: user.db",
				"initialize_mode: legacy",
				"locale: de",
				"seed: 99",
				"required_functions:",
				"  - int Step(bool correct)",
				"  - bool End()",
			}, "\n"),
			check: func(c *Config) bool {
				return c.LogLevel == "debug" && c.LogFormat == "json" &&
					c.Timeout == 250*time.Millisecond && c.MaxCallDepth == 64 &&
					c.SourceEncoding == "shift_jis" && c.UserDataPath == "user.db" &&
					c.InitializeMode == InitializeLegacy && c.Locale == "de" && c.Seed == 99 &&
					len(c.RequiredFunctions) == 2
			},
		},
		{name: "bad level", yaml: "log_level: loud", wantErr: "invalid log level"},
		{name: "bad format", yaml: "log_format: xml", wantErr: "invalid log format"},
		{name: "negative timeout", yaml: "timeout: -1s", wantErr: "timeout must be non-negative"},
		{name: "zero depth", yaml: "max_call_depth: 0", wantErr: "max_call_depth must be positive"},
		{name: "bad encoding", yaml: "source_encoding: klingon", wantErr: "unknown source encoding"},
		{name: "bad mode", yaml: "initialize_mode: sometimes", wantErr: "invalid initialize_mode"},
		{name: "bad yaml", yaml: "log_level: [", wantErr: "parsing"},
	}

	for i, tt := range tests {
		cfg, err := Parse([]byte(tt.yaml), "test.yaml")
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("tests[%d] - %s: expected error containing %q, got %v", i, tt.name, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error %v", i, tt.name, err)
		}
		if !tt.check(cfg) {
			t.Fatalf("tests[%d] - %s: unexpected config %+v", i, tt.name, cfg)
		}
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.MaxCallDepth = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"invalid log level", "max_call_depth"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bgcscript.yaml")
	if err := os.WriteFile(path, []byte("timeout: 2s\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("expected 2s, got %s", cfg.Timeout)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestRequiredSignatures(t *testing.T) {
	reg := interop.NewRegistry()
	if _, err := reg.RegisterType("Trial"); err != nil {
		t.Fatalf("RegisterType: %v", err)
	}
	cfg := Default()
	cfg.RequiredFunctions = []string{"int Step(bool)", "Trial Next(int[] history)"}

	sigs, err := cfg.RequiredSignatures(reg)
	if err != nil {
		t.Fatalf("RequiredSignatures: %v", err)
	}
	step := types.NewFunctionSignature("Step", types.Int, types.ArgumentData{Type: types.Bool})
	if len(sigs) != 2 || sigs[0].ID != step.ID {
		t.Fatalf("unexpected signatures %v", sigs)
	}
	if !sigs[1].ReturnType.Equal(types.Host("Trial")) {
		t.Errorf("expected host return type, got %s", sigs[1].ReturnType)
	}

	if _, err := cfg.RequiredSignatures(nil); err == nil {
		t.Error("an unknown host type must be rejected")
	}
}
