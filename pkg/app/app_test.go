package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/parser"
)

const calculator = `
#info title Calculator
int total;

int Add(int a, int b) => a + b;
double Half(double x) => x / 2;
string Shout(string s) => s.ToUpper();
bool IsBig(int x) => x > 0xFF;
void Accumulate(int x) { total += x; }
int Total() => total;
`

const counting = `
int trialCount = 0;
int correctCount = 0;

int Initialize() => 0;

int Step(bool lastTrialCorrect) {
	trialCount++;
	if (lastTrialCorrect) {
		correctCount++;
	}
	return 1;
}

bool End() => trialCount >= 10;

double CalculateThreshold() => clamp(2 * (correctCount - 0.5 * trialCount), 0, trialCount);
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")
	var out, errOut bytes.Buffer
	err := New(&out, &errOut).Run(args)
	return out.String(), errOut.String(), err
}

func TestRunCalls(t *testing.T) {
	path := writeFile(t, t.TempDir(), "calc.bgc", calculator)

	out, _, err := run(t, path,
		"--call", "Add(2, 3)",
		"--call", "Half(-3.0)",
		"--call", `Shout("lab")`,
		"--call", "IsBig(0x100)",
		"--call", "Accumulate(4)",
		"--call", "Accumulate(5)",
		"--call", "Total",
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := strings.Join([]string{
		"Add(2, 3) = 5",
		"Half(-3) = -1.5",
		`Shout("lab") = LAB`,
		"IsBig(256) = True",
		"Accumulate(4)",
		"Accumulate(5)",
		"Total() = 9",
	}, "\n") + "\n"
	if out != want {
		t.Errorf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestRunLogsSharedGlobals(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hits.bgc", `
global int hits;
int count;
void Hit() { hits++; count++; }
`)

	_, errOut, err := run(t, path, "--call", "Hit()")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(errOut, "globals=[hits]") {
		t.Errorf("run summary should list only the shared globals:\n%s", errOut)
	}
}

func TestRunCallErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "calc.bgc", calculator)

	tests := []struct {
		name string
		call string
	}{
		{"unknown function", "Missing()"},
		{"wrong argument type", `Add("a", 1)`},
		{"malformed call", "Add(1,"},
	}
	for i, tt := range tests {
		if _, _, err := run(t, path, "--call", tt.call); err == nil {
			t.Fatalf("tests[%d] - %s: expected an error", i, tt.name)
		}
	}
}

func TestRunAlgorithm(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counting.bgc", counting)

	out, _, err := run(t, path, "--algorithm", "TTTTTTTFFF", "-t", "2s")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := strings.Join([]string{
		"mode: current",
		"steps: 0 1 1 1 1 1 1 1 1 1 1",
		"trials: 10/10",
		"ended: true",
		"threshold: 4",
	}, "\n") + "\n"
	if out != want {
		t.Errorf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestRunAlgorithmRejectsPlainScript(t *testing.T) {
	path := writeFile(t, t.TempDir(), "calc.bgc", calculator)

	_, _, err := run(t, path, "--algorithm", "TT")
	if !errors.Is(err, parser.ErrMissingFunction) {
		t.Fatalf("expected a missing function error, got %v", err)
	}
}

func TestRunCompileError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.bgc", "int F() => 1;\nint G() => undefinedName;\n")

	_, errOut, err := run(t, path, "--call", "F()")
	var pe *parser.ParsingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected a ParsingError, got %v", err)
	}
	if pe.Line != 2 {
		t.Errorf("expected line 2, got %d", pe.Line)
	}
	if !strings.Contains(errOut, path+":2:") || !strings.Contains(errOut, "^") {
		t.Errorf("diagnostic missing from stderr:\n%s", errOut)
	}
	if strings.Contains(errOut, colorRed) {
		t.Errorf("diagnostic for a non-terminal must not be colored:\n%s", errOut)
	}
}

func TestRunWithConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scores.bgc", `
void Save(int score) { User.SetInt("best", score); }
int Load() => User.GetInt("best", -1);
`)
	settings := writeFile(t, dir, "settings.yaml", "log_level: warn\nlog_format: json\nuser_data_path: "+
		filepath.Join(dir, "user.db")+"\nrequired_functions:\n  - int Load()\n")

	out, _, err := run(t, "-c", settings, path, "--call", "Load()", "--call", "Save(42)")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Load() = -1\nSave(42)\n" {
		t.Errorf("unexpected first run output %q", out)
	}

	// 値はユーザーデータに永続化される
	out, _, err = run(t, "-c", settings, path, "--call", "Load()")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Load() = 42\n" {
		t.Errorf("unexpected second run output %q", out)
	}
}

func TestRunRequiredFunctionMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.bgc", calculator)
	settings := writeFile(t, dir, "settings.yaml", "required_functions:\n  - int Step(bool)\n")

	_, _, err := run(t, "--config", settings, path)
	if !errors.Is(err, parser.ErrMissingFunction) {
		t.Fatalf("expected a missing function error, got %v", err)
	}
}

func TestRunInvalidSettings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.bgc", calculator)

	tests := []struct {
		name string
		args []string
	}{
		{"missing script", []string{filepath.Join(dir, "none.bgc")}},
		{"missing config", []string{"-c", filepath.Join(dir, "none.yaml"), path}},
		{"bad log format", []string{"--log-format", "xml", path}},
		{"bad mode", []string{"--mode", "sometimes", path}},
		{"bad encoding", []string{"--encoding", "klingon", path}},
		{"bad trials", []string{"--algorithm", "TX", path}},
	}
	for i, tt := range tests {
		if _, _, err := run(t, tt.args...); err == nil {
			t.Fatalf("tests[%d] - %s: expected an error", i, tt.name)
		}
	}
}

func TestParseInvocation(t *testing.T) {
	tests := []struct {
		input string
		want  Invocation
	}{
		{"Total", Invocation{Name: "Total"}},
		{"Total()", Invocation{Name: "Total"}},
		{"Add(1, -2)", Invocation{Name: "Add", Args: []any{int64(1), int64(-2)}}},
		{"Mask(0x1F)", Invocation{Name: "Mask", Args: []any{int64(31)}}},
		{"Scale(2.5, -1e3)", Invocation{Name: "Scale", Args: []any{2.5, -1000.0}}},
		{`Greet("a, b", true, false)`, Invocation{Name: "Greet", Args: []any{"a, b", true, false}}},
	}
	for i, tt := range tests {
		got, err := ParseInvocation(tt.input)
		if err != nil {
			t.Fatalf("tests[%d] - ParseInvocation(%q): %v", i, tt.input, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("tests[%d] - ParseInvocation(%q) = %#v, want %#v", i, tt.input, got, tt.want)
		}
	}
}

func TestParseInvocationErrors(t *testing.T) {
	inputs := []string{
		"",
		"1(2)",
		"F 1",
		"F(1",
		"F(1 2)",
		"F(x)",
		`F(-"a")`,
		"F() G()",
		`F("unterminated)`,
	}
	for i, input := range inputs {
		if _, err := ParseInvocation(input); err == nil {
			t.Fatalf("tests[%d] - ParseInvocation(%q): expected an error", i, input)
		}
	}
}

func TestFormatDiagnostic(t *testing.T) {
	pe := &parser.ParsingError{
		Kind:    parser.KindUndeclaredIdentifier,
		Message: "x is not declared",
		Line:    2,
		Column:  12,
		Context: parser.GenerateErrorContext("int a;\nint b() => x;\n", 2, 12),
	}

	plain := formatDiagnostic("s.bgc", pe, false)
	if !strings.HasPrefix(plain, "s.bgc:2:12: UndeclaredIdentifier: x is not declared\n") {
		t.Errorf("unexpected header:\n%s", plain)
	}
	if !strings.Contains(plain, "> 2 | int b() => x;\n") {
		t.Errorf("error line not marked:\n%s", plain)
	}

	colored := formatDiagnostic("s.bgc", pe, true)
	if !strings.HasPrefix(colored, colorRed) {
		t.Errorf("header not colored:\n%q", colored)
	}
	if !strings.Contains(colored, colorRed+"^"+colorReset) {
		t.Errorf("caret not colored:\n%q", colored)
	}
	if strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(colored, colorRed, ""), colorBold, ""), colorReset, "") != plain {
		t.Errorf("colored output must only add escape codes:\n%q\n%q", colored, plain)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("truncate = %q", got)
	}
}
