package parser

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/ast"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

type symbolKind uint8

const (
	symbolMember symbolKind = iota
	symbolGlobal
	symbolExtern
	symbolConst
	symbolParameter
	symbolLocal
)

type symbol struct {
	name     string
	typ      types.Type
	kind     symbolKind
	readOnly bool
	constant *ast.Literal
	pos      lexer.Position
}

type reservation struct {
	pos      lexer.Position
	function bool
}

// CompilationContext is the parse-time symbol table: the script-level
// scope, the function table and the stack of block scopes of the function
// currently being parsed.
type CompilationContext struct {
	script    map[string]*symbol
	reserved  map[string]reservation
	functions map[string][]*ast.Function
	order     []*ast.Function
	scopes    []map[string]*symbol

	function  *ast.Function
	loopDepth int
}

// NewCompilationContext creates an empty context.
func NewCompilationContext() *CompilationContext {
	return &CompilationContext{
		script:    make(map[string]*symbol),
		reserved:  make(map[string]reservation),
		functions: make(map[string][]*ast.Function),
	}
}

// reserve claims a script-level name during the declaration scan. Variables
// and functions share one namespace; only functions may reuse a name, and
// their overloads are checked by declareFunction.
func (c *CompilationContext) reserve(name string, pos lexer.Position, function bool) bool {
	if r, ok := c.reserved[name]; ok {
		return function && r.function
	}
	c.reserved[name] = reservation{pos: pos, function: function}
	return true
}

// defineScript makes a script-level variable visible to later code.
func (c *CompilationContext) defineScript(s *symbol) {
	c.script[s.name] = s
}

// declareFunction adds fn to the function table. It returns the colliding
// function when one with the same argument types exists.
func (c *CompilationContext) declareFunction(fn *ast.Function) *ast.Function {
	name := fn.Signature.Identifier
	for _, other := range c.functions[name] {
		if other.Signature.SameArguments(fn.Signature) {
			return other
		}
	}
	c.functions[name] = append(c.functions[name], fn)
	c.order = append(c.order, fn)
	return nil
}

// overloads returns the functions named name.
func (c *CompilationContext) overloads(name string) []*ast.Function {
	return c.functions[name]
}

func (c *CompilationContext) enterFunction(fn *ast.Function) {
	c.function = fn
	c.loopDepth = 0
	c.scopes = []map[string]*symbol{make(map[string]*symbol)}
}

func (c *CompilationContext) leaveFunction() {
	c.function = nil
	c.scopes = nil
}

func (c *CompilationContext) pushScope() {
	c.scopes = append(c.scopes, make(map[string]*symbol))
}

func (c *CompilationContext) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// declareLocal adds s to the innermost scope. It reports false when the
// name already exists in that scope.
func (c *CompilationContext) declareLocal(s *symbol) bool {
	scope := c.scopes[len(c.scopes)-1]
	if _, ok := scope[s.name]; ok {
		return false
	}
	scope[s.name] = s
	return true
}

// lookup resolves name from the innermost scope outwards, ending at the
// script-level scope.
func (c *CompilationContext) lookup(name string) (*symbol, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if s, ok := c.scopes[i][name]; ok {
			return s, true
		}
	}
	s, ok := c.script[name]
	return s, ok
}
