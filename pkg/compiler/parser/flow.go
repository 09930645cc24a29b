package parser

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/ast"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// alwaysReturns reports whether every path through body ends in a return.
func alwaysReturns(body []ast.Statement) bool {
	for _, s := range body {
		if returns(s) {
			return true
		}
	}
	return false
}

func returns(s ast.Statement) bool {
	switch n := s.(type) {
	case *ast.Return:
		return true
	case *ast.Block:
		return alwaysReturns(n.Statements)
	case *ast.If:
		return n.Otherwise != nil && returns(n.Then) && returns(n.Otherwise)
	case *ast.While:
		return isTrue(n.Cond) && !breaks(n.Body)
	case *ast.DoWhile:
		return returns(n.Body) || (isTrue(n.Cond) && !breaks(n.Body))
	case *ast.For:
		return (n.Cond == nil || isTrue(n.Cond)) && !breaks(n.Body)
	}
	return false
}

// breaks reports whether s contains a break that leaves the loop whose body
// is s. Breaks inside nested loops belong to those loops.
func breaks(s ast.Statement) bool {
	switch n := s.(type) {
	case *ast.Break:
		return true
	case *ast.Block:
		for _, c := range n.Statements {
			if breaks(c) {
				return true
			}
		}
	case *ast.If:
		return breaks(n.Then) || (n.Otherwise != nil && breaks(n.Otherwise))
	}
	return false
}

func isTrue(e ast.Expression) bool {
	lit, ok := e.(*ast.Literal)
	return ok && lit.Value.Type().Kind() == types.KindBool && lit.Value.Bool()
}
