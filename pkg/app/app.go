package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/algorithm"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/cli"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/parser"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/config"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/fileutil"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/hostlib"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/logger"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/script"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/source"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/userdata"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	args   *cli.Config
	config *config.Config
	log    *slog.Logger
	out    io.Writer
	errOut io.Writer
	store  *userdata.Store
}

// New Applicationを作成。結果は out に、ログと診断は errOut に書き出す
func New(out, errOut io.Writer) *Application {
	return &Application{out: out, errOut: errOut}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	ctx := context.Background()

	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.args.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. 設定ファイルの読み込み（コマンドライン引数が優先）
	if err := app.loadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "script", app.args.ScriptPath)

	// 4. ユーザーデータとホストメンバーの準備
	if err := app.openUserData(ctx); err != nil {
		return fmt.Errorf("failed to open user data: %w", err)
	}
	defer app.closeUserData()

	reg, err := hostlib.NewStandardRegistry(hostlib.Options{
		Logger: app.log,
		Store:  app.store,
		Seed:   app.config.Seed,
		Locale: app.config.Locale,
	})
	if err != nil {
		return fmt.Errorf("failed to register host members: %w", err)
	}

	// 5. スクリプトファイルの読み込み
	src, err := app.loadScript()
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}

	app.log.Info("Script loaded", "name", src.Name, "size", src.Size)
	app.log.Debug("Script content preview", "name", src.Name, "preview", truncate(src.Content, 100))

	// 6. スクリプトのコンパイル
	s, mode, err := app.compileScript(src, reg)
	if err != nil {
		app.printDiagnostic(err)
		return fmt.Errorf("failed to compile script: %w", err)
	}

	app.log.Info("Script compiled successfully", "name", s.Name(), "functions", len(s.Functions()))

	// 7. 関数呼び出しとアルゴリズムの実行
	globals := runtime.NewGlobalRuntimeContext()
	if len(app.args.Calls) > 0 {
		if err := app.runCalls(ctx, s, globals); err != nil {
			return err
		}
	}
	if app.args.Trials != "" {
		if err := app.runAlgorithm(ctx, s, globals, mode); err != nil {
			return err
		}
	}

	app.log.Info("Application terminated normally", "globals", globals.Keys())
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	parsed, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.args = parsed
	return nil
}

// loadConfig 設定ファイルを読み込み、コマンドライン引数で上書きする
func (app *Application) loadConfig() error {
	cfg := config.Default()
	if app.args.ConfigPath != "" {
		loaded, err := config.Load(app.args.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if app.args.LogLevel != "" {
		cfg.LogLevel = app.args.LogLevel
	}
	if app.args.LogFormat != "" {
		cfg.LogFormat = app.args.LogFormat
	}
	if app.args.TimeoutSet {
		cfg.Timeout = app.args.Timeout
	}
	if app.args.Encoding != "" {
		cfg.SourceEncoding = app.args.Encoding
	}
	if app.args.InitializeMode != "" {
		cfg.InitializeMode = app.args.InitializeMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.config = cfg
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerWithFormat(app.config.LogLevel, app.config.LogFormat, app.errOut); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

func (app *Application) openUserData(ctx context.Context) error {
	if app.config.UserDataPath == "" {
		return nil
	}
	store, err := userdata.Open(ctx, app.config.UserDataPath)
	if err != nil {
		return err
	}
	app.store = store
	app.log.Debug("User data opened", "path", app.config.UserDataPath)
	return nil
}

func (app *Application) closeUserData() {
	if app.store == nil {
		return
	}
	if err := app.store.Close(); err != nil {
		app.log.Warn("Failed to close user data", "error", err)
	}
	app.store = nil
}

// loadScript スクリプトファイルを読み込む
func (app *Application) loadScript() (*source.Source, error) {
	dir, base := filepath.Split(app.args.ScriptPath)
	if dir == "" {
		dir = "."
	}
	loader, err := source.NewLoader(fileutil.Dir(dir), app.config.SourceEncoding)
	if err != nil {
		return nil, err
	}
	return loader.Load(base)
}

// compileScript スクリプトをコンパイルする。-algorithm 指定時は
// アルゴリズムのエントリーポイントも検査する
func (app *Application) compileScript(src *source.Source, reg *interop.Registry) (*script.Script, algorithm.InitializeMode, error) {
	required, err := app.config.RequiredSignatures(reg)
	if err != nil {
		return nil, algorithm.InitializeAuto, err
	}
	name := src.Metadata.Title
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(src.Name), filepath.Ext(src.Name))
	}
	opts := []script.Option{
		script.WithRegistry(reg),
		script.WithRequired(required...),
		script.WithLogger(app.log),
		script.WithName(name),
		script.WithMaxCallDepth(app.config.MaxCallDepth),
	}

	if app.args.Trials == "" {
		s, err := script.New(src.Content, opts...)
		return s, algorithm.InitializeAuto, err
	}

	mode, err := algorithm.ParseInitializeMode(app.config.InitializeMode)
	if err != nil {
		return nil, mode, err
	}
	return algorithm.Compile(src.Content, mode, opts...)
}

// runCalls -call で指定された関数を順に呼び出し、結果を表示する
func (app *Application) runCalls(ctx context.Context, s *script.Script, globals *runtime.GlobalRuntimeContext) error {
	rc, err := s.PrepareScript(ctx, globals)
	if err != nil {
		return fmt.Errorf("failed to prepare script: %w", err)
	}
	for _, text := range app.args.Calls {
		inv, err := ParseInvocation(text)
		if err != nil {
			return err
		}
		v, err := app.invoke(ctx, s, rc, inv)
		if err != nil {
			return fmt.Errorf("%s: %w", inv, err)
		}
		app.log.Debug("Function called", "call", inv.String(), "type", v.Type().String())
		if v.Type().IsVoid() {
			fmt.Fprintf(app.out, "%s\n", inv)
			continue
		}
		fmt.Fprintf(app.out, "%s = %s\n", inv, v)
	}
	return nil
}

func (app *Application) invoke(ctx context.Context, s *script.Script, rc *runtime.ScriptRuntimeContext, inv Invocation) (types.Value, error) {
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}
	return script.Call[types.Value](ctx, s, inv.Name, rc, inv.Args...)
}

// runAlgorithm 試行列でアルゴリズムを駆動し、結果を表示する
func (app *Application) runAlgorithm(ctx context.Context, s *script.Script, globals *runtime.GlobalRuntimeContext, mode algorithm.InitializeMode) error {
	trials, err := algorithm.ParseTrials(app.args.Trials)
	if err != nil {
		return err
	}
	a, err := algorithm.New(ctx, s, globals, mode,
		algorithm.WithTimeout(app.config.Timeout),
		algorithm.WithLogger(app.log))
	if err != nil {
		return fmt.Errorf("failed to prepare algorithm: %w", err)
	}
	res, err := a.Run(ctx, trials)
	if err != nil {
		return fmt.Errorf("algorithm failed: %w", err)
	}

	steps := make([]string, len(res.Steps))
	for i, step := range res.Steps {
		steps[i] = fmt.Sprint(step)
	}
	fmt.Fprintf(app.out, "mode: %s\n", a.Mode())
	fmt.Fprintf(app.out, "steps: %s\n", strings.Join(steps, " "))
	fmt.Fprintf(app.out, "trials: %d/%d\n", res.Trials, len(trials))
	fmt.Fprintf(app.out, "ended: %t\n", res.Ended)
	fmt.Fprintf(app.out, "threshold: %s\n", types.DoubleValue(res.Threshold))
	return nil
}

// printDiagnostic コンパイルエラーのソース位置を表示する
func (app *Application) printDiagnostic(err error) {
	var pe *parser.ParsingError
	if !errors.As(err, &pe) || pe.Context == "" {
		return
	}
	fmt.Fprint(app.errOut, formatDiagnostic(app.args.ScriptPath, pe, logger.IsTerminal(app.errOut)))
}

const (
	colorRed   = "\x1b[31m"
	colorBold  = "\x1b[1m"
	colorReset = "\x1b[0m"
)

// formatDiagnostic renders pe with its source context. With color, the
// header is red, the offending line bold and the caret red.
func formatDiagnostic(path string, pe *parser.ParsingError, color bool) string {
	var b strings.Builder
	header := fmt.Sprintf("%s:%d:%d: %s: %s", path, pe.Line, pe.Column, pe.Kind, pe.Message)
	if color {
		header = colorRed + header + colorReset
	}
	b.WriteString(header + "\n")
	for _, line := range strings.SplitAfter(pe.Context, "\n") {
		if line == "" {
			continue
		}
		if color {
			switch {
			case strings.HasPrefix(line, ">"):
				line = colorBold + strings.TrimSuffix(line, "\n") + colorReset + "\n"
			case strings.HasSuffix(line, "^\n"):
				line = strings.TrimSuffix(line, "^\n") + colorRed + "^" + colorReset + "\n"
			}
		}
		b.WriteString(line)
	}
	return b.String()
}

// truncate 文字列を指定した長さで切り詰める
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
