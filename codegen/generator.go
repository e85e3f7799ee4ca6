// Package codegen lowers an AST into AT&T-syntax x86-64 assembly
// text. There is no intermediate representation: each AST node is
// translated directly into instructions. Every expression leaves its
// result in %rax. Arithmetic and comparison operands evaluate
// right-then-left; `||` and `&&` evaluate their left operand first.
package codegen

import (
	"fmt"

	"github.com/skx/unicc/ast"
)

// Generator holds the two pieces of mutable state a compilation run
// owns: the output buffer and the monotonic label counter. Both start
// empty in New and live as long as the Generator; a second Generate
// call appends to the same buffer and continues the same counter.
type Generator struct {
	code   Buffer
	labels int
}

// New creates a fresh Generator.
func New() *Generator {
	return &Generator{}
}

// Generate lowers an entire program to assembly text.
func (g *Generator) Generate(prog *ast.Program) (string, error) {
	for _, decl := range prog.Declarations {
		if err := g.genFunctionDeclaration(decl); err != nil {
			return "", err
		}
	}
	return g.code.String(), nil
}

// nextLabel returns a fresh, monotonically increasing label of the
// form ".L<n>". The counter is never reset between functions, so two
// labels emitted by one Generator instance never collide.
func (g *Generator) nextLabel() string {
	label := fmt.Sprintf(".L%d", g.labels)
	g.labels++
	return label
}

// genFunctionDeclaration emits the prologue, body, and implicit
// fall-through epilogue for one function.
func (g *Generator) genFunctionDeclaration(decl *ast.FunctionDeclaration) error {
	scope := NewScope()

	g.code.AppendLine(fmt.Sprintf(".globl %s", decl.Name))
	g.code.Label(decl.Name)

	// Prologue.
	g.code.AppendLine("push %rbp")
	g.code.AppendLine("mov %rsp, %rbp")

	for _, stmt := range decl.Body {
		if err := g.genStatement(scope, stmt); err != nil {
			return fmt.Errorf("function %s: %w", decl.Name, err)
		}
	}

	// Implicit epilogue: covers fall-through with a return value of
	// zero.
	g.code.AppendLine("xor %rax, %rax")
	g.code.AppendLine("mov %rbp, %rsp")
	g.code.AppendLine("pop %rbp")
	g.code.AppendLine("ret")

	return nil
}

func (g *Generator) genStatement(scope *Scope, stmt ast.Statement) error {
	switch s := stmt.(type) {

	case *ast.ReturnStatement:
		if err := g.genExpression(scope, s.Value); err != nil {
			return err
		}
		g.code.AppendLine("mov %rbp, %rsp")
		g.code.AppendLine("pop %rbp")
		g.code.AppendLine("ret")
		return nil

	case *ast.DeclareStatement:
		if s.Init == nil {
			g.code.AppendLine("sub $4, %rsp")
			return scope.AddSymbol(s.Name)
		}

		offset := scope.NextOffset()
		if err := scope.AddSymbol(s.Name); err != nil {
			return err
		}
		if err := g.genExpression(scope, s.Init); err != nil {
			return err
		}
		g.code.AppendLine("sub $4, %rsp")
		g.code.AppendLine(fmt.Sprintf("movl %%eax, %d(%%rbp)", offset))
		return nil

	case *ast.ExpressionStatement:
		return g.genExpression(scope, s.Value)

	default:
		return fmt.Errorf("unhandled statement type %T", stmt)
	}
}

func (g *Generator) genExpression(scope *Scope, expr ast.Expression) error {
	switch e := expr.(type) {

	case *ast.IntLiteral:
		g.code.AppendLine(fmt.Sprintf("mov $%d, %%rax", e.Value))
		return nil

	case *ast.Variable:
		offset, err := scope.GetSymbol(e.Name)
		if err != nil {
			return err
		}
		g.code.AppendLine("xor %rax, %rax")
		g.code.AppendLine(fmt.Sprintf("movl %d(%%rbp), %%eax", offset))
		return nil

	case *ast.UnaryExpression:
		return g.genUnary(scope, e)

	case *ast.BinaryExpression:
		return g.genBinary(scope, e)

	default:
		return fmt.Errorf("unhandled expression type %T", expr)
	}
}

func (g *Generator) genUnary(scope *Scope, e *ast.UnaryExpression) error {
	if err := g.genExpression(scope, e.Operand); err != nil {
		return err
	}

	switch e.Operator {
	case ast.Negation:
		g.code.AppendLine("neg %rax")
	case ast.BitwiseNot:
		g.code.AppendLine("not %rax")
	case ast.LogicNot:
		g.code.AppendLine("cmp $0, %rax")
		g.code.AppendLine("mov $0, %rax")
		g.code.AppendLine("sete %al")
	default:
		return fmt.Errorf("unhandled unary operator %v", e.Operator)
	}
	return nil
}

func (g *Generator) genBinary(scope *Scope, e *ast.BinaryExpression) error {
	switch e.Operator {

	case ast.LogicOr:
		return g.genShortCircuit(scope, e, "je", "mov $1, %rax")

	case ast.LogicAnd:
		return g.genShortCircuit(scope, e, "jne", "mov $0, %rax")

	case ast.Assign:
		variable, ok := e.Left.(*ast.Variable)
		if !ok {
			return fmt.Errorf("invalid assignment: left-hand side is not a variable")
		}
		offset, err := scope.GetSymbol(variable.Name)
		if err != nil {
			return err
		}
		if err := g.genExpression(scope, e.Right); err != nil {
			return err
		}
		g.code.AppendLine(fmt.Sprintf("movl %%eax, %d(%%rbp)", offset))
		return nil

	default:
		return g.genArithmeticOrComparison(scope, e)
	}
}

// genShortCircuit lowers `||` and `&&`. Both share the same two-
// basic-block-and-a-join shape; they differ only in which comparison
// short-circuits the right-hand side (`je`/`jne`) and which value is
// produced on that early exit (`mov $1, %rax`/`mov $0, %rax`).
func (g *Generator) genShortCircuit(scope *Scope, e *ast.BinaryExpression, shortCircuitJump, shortCircuitValue string) error {
	clause2 := g.nextLabel()
	end := g.nextLabel()

	if err := g.genExpression(scope, e.Left); err != nil {
		return err
	}
	g.code.AppendLine("cmp $0, %rax")
	g.code.AppendLine(fmt.Sprintf("%s %s", shortCircuitJump, clause2))
	g.code.AppendLine(shortCircuitValue)
	g.code.AppendLine(fmt.Sprintf("jmp %s", end))
	g.code.Label(clause2)

	if err := g.genExpression(scope, e.Right); err != nil {
		return err
	}
	g.code.AppendLine("cmp $0, %rax")
	g.code.AppendLine("mov $0, %rax")
	g.code.AppendLine("setne %al")
	g.code.Label(end)

	return nil
}

// genArithmeticOrComparison lowers every remaining binary operator.
// Operands evaluate right-then-left: the right operand is generated
// first and pushed, then the left operand is generated into %rax, then
// the saved right operand is popped into %rcx. This ordering makes the
// non-commutative operators (subtraction, division) land correctly
// without a register swap.
func (g *Generator) genArithmeticOrComparison(scope *Scope, e *ast.BinaryExpression) error {
	if err := g.genExpression(scope, e.Right); err != nil {
		return err
	}
	g.code.AppendLine("push %rax")
	if err := g.genExpression(scope, e.Left); err != nil {
		return err
	}
	g.code.AppendLine("pop %rcx")

	switch e.Operator {
	case ast.Plus:
		g.code.AppendLine("add %rcx, %rax")
	case ast.Minus:
		g.code.AppendLine("sub %rcx, %rax")
	case ast.Times:
		g.code.AppendLine("imul %rcx, %rax")
	case ast.Divide:
		g.code.AppendLine("cqo")
		g.code.AppendLine("idiv %rcx")
	case ast.EQ:
		g.genCompare("sete")
	case ast.NEQ:
		g.genCompare("setne")
	case ast.LT:
		g.genCompare("setl")
	case ast.GT:
		g.genCompare("setg")
	case ast.LE:
		g.genCompare("setle")
	case ast.GE:
		g.genCompare("setge")
	default:
		return fmt.Errorf("unhandled binary operator %v", e.Operator)
	}
	return nil
}

// genCompare emits the `cmp`/zero/`set<cc>` triple shared by every
// comparison operator, parameterized only by the set-byte mnemonic.
func (g *Generator) genCompare(setInstruction string) {
	g.code.AppendLine("cmp %rcx, %rax")
	g.code.AppendLine("mov $0, %rax")
	g.code.AppendLine(fmt.Sprintf("%s %%al", setInstruction))
}
