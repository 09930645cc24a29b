package runtime

import (
	"context"
	"log/slog"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/logger"
)

// MaxCallDepth is the default maximum script call depth.
const MaxCallDepth = 1000

// FlowState is the control-flow signal produced by executing a statement.
type FlowState uint8

const (
	Nominal FlowState = iota
	Return
	LoopBreak
	LoopContinue
)

func (f FlowState) String() string {
	switch f {
	case Nominal:
		return "Nominal"
	case Return:
		return "Return"
	case LoopBreak:
		return "LoopBreak"
	case LoopContinue:
		return "LoopContinue"
	}
	return "Unknown"
}

// Execution carries the per-invocation state threaded through every node:
// the cancellation signal and the call depth. One Execution belongs to one
// goroutine.
type Execution struct {
	ctx      context.Context
	depth    int
	maxDepth int
	log      *slog.Logger
}

// ExecutionOption configures an Execution.
type ExecutionOption func(*Execution)

// WithMaxCallDepth overrides MaxCallDepth.
func WithMaxCallDepth(depth int) ExecutionOption {
	return func(e *Execution) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithExecutionLogger sets the logger used for execution diagnostics.
func WithExecutionLogger(log *slog.Logger) ExecutionOption {
	return func(e *Execution) {
		if log != nil {
			e.log = log
		}
	}
}

// NewExecution creates the execution state for one invocation.
func NewExecution(ctx context.Context, opts ...ExecutionOption) *Execution {
	if ctx == nil {
		ctx = context.Background()
	}
	e := &Execution{
		ctx:      ctx,
		maxDepth: MaxCallDepth,
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Context returns the context host adapters receive.
func (e *Execution) Context() context.Context { return e.ctx }

// Logger returns the execution logger.
func (e *Execution) Logger() *slog.Logger { return e.log }

// Depth returns the current call depth.
func (e *Execution) Depth() int { return e.depth }

// Checkpoint polls the cancellation signal. It is called before every
// statement and every call.
func (e *Execution) Checkpoint() error {
	select {
	case <-e.ctx.Done():
		return &CancelledError{Cause: e.ctx.Err()}
	default:
		return nil
	}
}

// Enter records a call frame.
func (e *Execution) Enter() error {
	if e.depth >= e.maxDepth {
		return NewStackOverflowError(e.depth+1, e.maxDepth)
	}
	e.depth++
	return nil
}

// Leave pops a call frame.
func (e *Execution) Leave() {
	if e.depth > 0 {
		e.depth--
	}
}
