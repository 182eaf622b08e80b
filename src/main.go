// Command armgen is a small demo driver for the lowering core: it builds
// one hand-written AST (standing in for a parser this module does not
// implement, per §1's external-collaborator boundary), runs constant
// folding and lowering, and prints the resulting IR listing.
package main

import (
	"fmt"
	"os"

	"armgen/src/ast"
	"armgen/src/diagnostics"
	"armgen/src/env"
	"armgen/src/fold"
	"armgen/src/lower"
)

// sample builds the AST for "x = 2 + 3; return x", the end-to-end scenario
// named in §8: folding collapses the literal sum before a single variable
// load and return. Constant folding is an optional pass ahead of Lower,
// so it is applied here rather than inside the orchestrator.
func sample() ast.Program {
	sum := &ast.BinaryOp{
		Op:    ast.Add,
		Left:  &ast.IntegerLiteral{Value: 2},
		Right: &ast.IntegerLiteral{Value: 3},
	}
	folded := fold.ConstFold(sum, env.New(env.NewFunctionTable()))

	return ast.Program{
		Statements: []ast.Statement{
			&ast.Assign{Target: "x", Value: folded},
			&ast.Return{Value: &ast.Name{Value: "x"}},
		},
	}
}

func main() {
	program, err := lower.Lower(sample())
	if err != nil {
		fmt.Fprint(os.Stderr, diagnostics.Format(err))
		os.Exit(1)
	}
	fmt.Print(program.Dump())
}
