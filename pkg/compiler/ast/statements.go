package ast

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// ExpressionStatement evaluates an expression for its side effects.
type ExpressionStatement struct {
	Position lexer.Position
	Expr     Expression
}

func (s *ExpressionStatement) Pos() lexer.Position { return s.Position }

func (s *ExpressionStatement) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	_, err := s.Expr.Evaluate(ex, rc)
	return runtime.Nominal, err
}

// LocalDeclaration declares one or more locals of the same type. A nil
// initializer stores the zero value.
type LocalDeclaration struct {
	Position lexer.Position
	VarType  types.Type
	Names    []string
	Inits    []Expression
}

func (s *LocalDeclaration) Pos() lexer.Position { return s.Position }

func (s *LocalDeclaration) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	for i, name := range s.Names {
		v := types.Zero(s.VarType)
		if init := s.Inits[i]; init != nil {
			iv, err := init.Evaluate(ex, rc)
			if err != nil {
				return runtime.Nominal, err
			}
			if v, err = convert(iv, s.VarType, init.Pos()); err != nil {
				return runtime.Nominal, err
			}
		}
		if err := rc.Declare(name, s.VarType, v); err != nil {
			return runtime.Nominal, err
		}
	}
	return runtime.Nominal, nil
}

// Block runs its statements in a fresh scope.
type Block struct {
	Position   lexer.Position
	Statements []Statement
}

func (b *Block) Pos() lexer.Position { return b.Position }

func (b *Block) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	return executeList(ex, runtime.NewScopeRuntimeContext(rc), b.Statements)
}

// If is if (cond) then [else otherwise].
type If struct {
	Position  lexer.Position
	Cond      Expression
	Then      Statement
	Otherwise Statement
}

func (s *If) Pos() lexer.Position { return s.Position }

func (s *If) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	c, err := s.Cond.Evaluate(ex, rc)
	if err != nil {
		return runtime.Nominal, err
	}
	if c.Bool() {
		return runBranch(ex, rc, s.Then)
	}
	if s.Otherwise != nil {
		return runBranch(ex, rc, s.Otherwise)
	}
	return runtime.Nominal, nil
}

func runBranch(ex *runtime.Execution, rc runtime.Context, s Statement) (runtime.FlowState, error) {
	flow, err := s.Execute(ex, rc)
	if err != nil {
		return runtime.Nominal, runtime.WithLine(err, s.Pos().Line)
	}
	return flow, nil
}

// loopStep interprets the flow of one loop body run. done reports that the
// loop must stop and flow is what the loop statement itself returns.
func loopStep(flow runtime.FlowState) (done bool, out runtime.FlowState) {
	switch flow {
	case runtime.LoopBreak:
		return true, runtime.Nominal
	case runtime.Return:
		return true, runtime.Return
	}
	return false, runtime.Nominal
}

func condition(ex *runtime.Execution, rc runtime.Context, cond Expression) (bool, error) {
	if cond == nil {
		return true, nil
	}
	v, err := cond.Evaluate(ex, rc)
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

// While is while (cond) body.
type While struct {
	Position lexer.Position
	Cond     Expression
	Body     Statement
}

func (s *While) Pos() lexer.Position { return s.Position }

func (s *While) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	for {
		if err := ex.Checkpoint(); err != nil {
			return runtime.Nominal, err
		}
		ok, err := condition(ex, rc, s.Cond)
		if err != nil || !ok {
			return runtime.Nominal, err
		}
		flow, err := runBranch(ex, rc, s.Body)
		if err != nil {
			return runtime.Nominal, err
		}
		if done, out := loopStep(flow); done {
			return out, nil
		}
	}
}

// DoWhile is do body while (cond);.
type DoWhile struct {
	Position lexer.Position
	Body     Statement
	Cond     Expression
}

func (s *DoWhile) Pos() lexer.Position { return s.Position }

func (s *DoWhile) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	for {
		if err := ex.Checkpoint(); err != nil {
			return runtime.Nominal, err
		}
		flow, err := runBranch(ex, rc, s.Body)
		if err != nil {
			return runtime.Nominal, err
		}
		if done, out := loopStep(flow); done {
			return out, nil
		}
		ok, err := condition(ex, rc, s.Cond)
		if err != nil || !ok {
			return runtime.Nominal, err
		}
	}
}

// For is for (init; cond; post) body. Init runs in a scope that encloses
// the whole loop.
type For struct {
	Position lexer.Position
	Init     []Statement
	Cond     Expression
	Post     []Expression
	Body     Statement
}

func (s *For) Pos() lexer.Position { return s.Position }

func (s *For) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	scope := runtime.NewScopeRuntimeContext(rc)
	if _, err := executeList(ex, scope, s.Init); err != nil {
		return runtime.Nominal, err
	}
	for {
		if err := ex.Checkpoint(); err != nil {
			return runtime.Nominal, err
		}
		ok, err := condition(ex, scope, s.Cond)
		if err != nil || !ok {
			return runtime.Nominal, err
		}
		flow, err := runBranch(ex, scope, s.Body)
		if err != nil {
			return runtime.Nominal, err
		}
		if done, out := loopStep(flow); done {
			return out, nil
		}
		for _, post := range s.Post {
			if _, err := post.Evaluate(ex, scope); err != nil {
				return runtime.Nominal, runtime.WithLine(err, post.Pos().Line)
			}
		}
	}
}

// ForEach is foreach (T x in collection) body. The collection is evaluated
// once; each iteration binds x in its own scope.
type ForEach struct {
	Position   lexer.Position
	VarType    types.Type
	VarName    string
	Collection Expression
	Body       Statement
}

func (s *ForEach) Pos() lexer.Position { return s.Position }

func (s *ForEach) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	cv, err := s.Collection.Evaluate(ex, rc)
	if err != nil {
		return runtime.Nominal, err
	}
	arr := cv.Array()
	if arr == nil {
		return runtime.Nominal, nil
	}
	for i := 0; i < len(arr.Items); i++ {
		if err := ex.Checkpoint(); err != nil {
			return runtime.Nominal, err
		}
		scope := runtime.NewScopeRuntimeContext(rc)
		if err := scope.Declare(s.VarName, s.VarType, arr.Items[i]); err != nil {
			return runtime.Nominal, runtime.WithLine(err, s.Position.Line)
		}
		flow, err := runBranch(ex, scope, s.Body)
		if err != nil {
			return runtime.Nominal, err
		}
		if done, out := loopStep(flow); done {
			return out, nil
		}
	}
	return runtime.Nominal, nil
}

// Break leaves the innermost loop.
type Break struct {
	Position lexer.Position
}

func (s *Break) Pos() lexer.Position { return s.Position }

func (s *Break) Execute(*runtime.Execution, runtime.Context) (runtime.FlowState, error) {
	return runtime.LoopBreak, nil
}

// Continue starts the next iteration of the innermost loop.
type Continue struct {
	Position lexer.Position
}

func (s *Continue) Pos() lexer.Position { return s.Position }

func (s *Continue) Execute(*runtime.Execution, runtime.Context) (runtime.FlowState, error) {
	return runtime.LoopContinue, nil
}

// Return leaves the function. The value, if any, is converted to the
// function's return type and stashed in the global return slot.
type Return struct {
	Position lexer.Position
	Value    Expression
	To       types.Type
}

func (s *Return) Pos() lexer.Position { return s.Position }

func (s *Return) Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error) {
	if s.Value == nil {
		return runtime.Return, nil
	}
	v, err := s.Value.Evaluate(ex, rc)
	if err != nil {
		return runtime.Nominal, err
	}
	if v, err = convert(v, s.To, s.Position); err != nil {
		return runtime.Nominal, err
	}
	rc.Global().PushReturnValue(v)
	return runtime.Return, nil
}
