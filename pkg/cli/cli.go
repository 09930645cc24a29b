package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ScriptPath     string        // 実行するスクリプトファイル
	ConfigPath     string        // YAML設定ファイル（省略可）
	Timeout        time.Duration // 1回の呼び出しのタイムアウト
	TimeoutSet     bool          // Timeout がフラグか環境変数で指定されたか
	LogLevel       string        // ログレベル（debug, info, warn, error）。空なら設定ファイルに従う
	LogFormat      string        // text, json, auto。空なら設定ファイルに従う
	Encoding       string        // BOMのないスクリプトの文字コード
	InitializeMode string        // auto, current, legacy
	Calls          []string      // -call で指定された Name(arg, ...) の列
	Trials         string        // -algorithm で指定された試行列（TTFTF など）
	ShowHelp       bool          // ヘルプ表示フラグ
}

// durationValue accepts whole seconds ("5") or a Go duration ("250ms").
type durationValue struct {
	d   *time.Duration
	set *bool
}

func (v durationValue) String() string {
	if v.d == nil {
		return "0s"
	}
	return v.d.String()
}

func (v durationValue) Set(s string) error {
	if sec, err := strconv.Atoi(s); err == nil {
		*v.d = time.Duration(sec) * time.Second
	} else {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid timeout %q", s)
		}
		*v.d = d
	}
	*v.set = true
	return nil
}

// listValue collects a repeatable flag.
type listValue struct{ items *[]string }

func (v listValue) String() string {
	if v.items == nil {
		return ""
	}
	return strings.Join(*v.items, " ")
}

func (v listValue) Set(s string) error {
	*v.items = append(*v.items, s)
	return nil
}

// boolFlags never consume the following argument.
var boolFlags = map[string]bool{"-h": true, "--h": true, "-help": true, "--help": true}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("bgcscript", flag.ContinueOnError)
	fs.Usage = func() {}

	config := &Config{}

	timeout := durationValue{d: &config.Timeout, set: &config.TimeoutSet}
	fs.Var(timeout, "timeout", "call timeout (seconds or duration)")
	fs.Var(timeout, "t", "call timeout (short)")
	fs.StringVar(&config.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "", "log level (short)")
	fs.StringVar(&config.LogFormat, "log-format", "", "log format (text, json, auto)")
	fs.StringVar(&config.ConfigPath, "config", "", "YAML settings file")
	fs.StringVar(&config.ConfigPath, "c", "", "YAML settings file (short)")
	fs.StringVar(&config.Encoding, "encoding", "", "source encoding for files without a BOM")
	fs.StringVar(&config.InitializeMode, "mode", "", "Initialize mode (auto, current, legacy)")
	fs.Var(listValue{items: &config.Calls}, "call", "call Name(arg, ...); repeatable")
	fs.StringVar(&config.Trials, "algorithm", "", "drive the algorithm with a trial sequence such as TTFTF")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (short)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if !config.TimeoutSet {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if err := timeout.Set(timeoutEnv); err != nil {
				return nil, fmt.Errorf("TIMEOUT: %w", err)
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if config.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %s", config.Timeout)
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"":      true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected one script path, got %d", fs.NArg())
	}
	if fs.NArg() == 1 {
		config.ScriptPath = fs.Arg(0)
	}
	if config.ScriptPath == "" && !config.ShowHelp {
		return nil, fmt.Errorf("no script path given")
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように値が次の引数にある場合
			if !boolFlags[arg] && !strings.Contains(arg, "=") && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `bgcscript - adaptive-algorithm script runner

Usage:
  bgcscript [options] <script>

Arguments:
  script        script file to compile (.bgc)

Options:
  -c, --config <file>         YAML settings file
  -t, --timeout <value>       per-call timeout in seconds or as a duration (250ms)
  -l, --log-level <level>     debug, info, warn, error (default: info)
  --log-format <format>       text, json, auto (default: text)
  --encoding <name>           encoding of files without a BOM (utf-8, shift_jis, ...)
  --mode <mode>               Initialize mode: auto, current, legacy (default: auto)
  --call "Name(arg, ...)"     call a function and print its result; repeatable
  --algorithm <trials>        run Initialize/Step/End/CalculateThreshold over trials
                              such as TTFTF (T=correct, F=incorrect)
  -h, --help                  show this help

Environment Variables:
  TIMEOUT=<value>             per-call timeout
  LOG_LEVEL=<level>           log level

Examples:
  bgcscript staircase.bgc --algorithm TTTFTTFF
  bgcscript --call "Add(2, 3)" --call "Greet(\"lab\")" math.bgc
  bgcscript -c settings.yaml -t 500ms staircase.bgc --algorithm TTTT
`)
}
