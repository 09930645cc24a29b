package ast

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// GlobalDeclaration is a global or extern variable. An extern declaration
// binds to a global that must already exist with the same type.
type GlobalDeclaration struct {
	Position lexer.Position
	Name     string
	VarType  types.Type
	Init     Expression
	Extern   bool
}

func (d *GlobalDeclaration) Pos() lexer.Position   { return d.Position }
func (d *GlobalDeclaration) Identifier() string    { return d.Name }
func (d *GlobalDeclaration) ValueType() types.Type { return d.VarType }

func (d *GlobalDeclaration) Execute(ex *runtime.Execution, sc *runtime.ScriptRuntimeContext) error {
	var err error
	if d.Extern {
		err = sc.DeclareExistingGlobal(d.Name, d.VarType)
	} else {
		err = sc.DeclareNewGlobal(d.Name, d.VarType, func() (types.Value, error) {
			return initialValue(ex, sc, d.VarType, d.Init)
		})
	}
	return runtime.WithLine(err, d.Position.Line)
}

// MemberDeclaration is per-instance state that persists across calls into
// the same prepared script.
type MemberDeclaration struct {
	Position lexer.Position
	Name     string
	VarType  types.Type
	Init     Expression
}

func (d *MemberDeclaration) Pos() lexer.Position   { return d.Position }
func (d *MemberDeclaration) Identifier() string    { return d.Name }
func (d *MemberDeclaration) ValueType() types.Type { return d.VarType }

func (d *MemberDeclaration) Execute(ex *runtime.Execution, sc *runtime.ScriptRuntimeContext) error {
	v, err := initialValue(ex, sc, d.VarType, d.Init)
	if err != nil {
		return runtime.WithLine(err, d.Position.Line)
	}
	return runtime.WithLine(sc.Declare(d.Name, d.VarType, v), d.Position.Line)
}

func initialValue(ex *runtime.Execution, sc *runtime.ScriptRuntimeContext, t types.Type, init Expression) (types.Value, error) {
	if init == nil {
		return types.Zero(t), nil
	}
	if err := ex.Checkpoint(); err != nil {
		return types.Value{}, err
	}
	v, err := init.Evaluate(ex, sc)
	if err != nil {
		return types.Value{}, err
	}
	return convert(v, t, init.Pos())
}
