package ast

import (
	"fmt"
	"strings"
)

// Dump renders a Program as an indented tree, for the `-parse` debug
// mode.
func Dump(p *Program) string {
	var b strings.Builder
	for _, decl := range p.Declarations {
		dumpFunc(&b, decl, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}

func dumpFunc(b *strings.Builder, f *FunctionDeclaration, depth int) {
	indent(b, depth)
	fmt.Fprintf(b, "FunctionDeclaration %s %s()\n", f.ReturnType, f.Name)
	for _, stmt := range f.Body {
		dumpStatement(b, stmt, depth+1)
	}
}

func dumpStatement(b *strings.Builder, stmt Statement, depth int) {
	indent(b, depth)
	switch s := stmt.(type) {
	case *ReturnStatement:
		b.WriteString("Return\n")
		dumpExpression(b, s.Value, depth+1)
	case *DeclareStatement:
		fmt.Fprintf(b, "Declare %s\n", s.Name)
		if s.Init != nil {
			dumpExpression(b, s.Init, depth+1)
		}
	case *ExpressionStatement:
		b.WriteString("ExpressionStmt\n")
		dumpExpression(b, s.Value, depth+1)
	default:
		fmt.Fprintf(b, "<unknown statement %T>\n", stmt)
	}
}

func dumpExpression(b *strings.Builder, expr Expression, depth int) {
	indent(b, depth)
	switch e := expr.(type) {
	case *IntLiteral:
		fmt.Fprintf(b, "Int(%d)\n", e.Value)
	case *Variable:
		fmt.Fprintf(b, "Variable(%s)\n", e.Name)
	case *UnaryExpression:
		fmt.Fprintf(b, "UnaryOperation(%s)\n", e.Operator)
		dumpExpression(b, e.Operand, depth+1)
	case *BinaryExpression:
		fmt.Fprintf(b, "BinaryOperation(%s)\n", e.Operator)
		dumpExpression(b, e.Left, depth+1)
		dumpExpression(b, e.Right, depth+1)
	default:
		fmt.Fprintf(b, "<unknown expression %T>\n", expr)
	}
}
