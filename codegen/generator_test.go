package codegen

import (
	"strings"
	"testing"

	"github.com/skx/unicc/lexer"
	"github.com/skx/unicc/parser"
)

// compile lexes, parses and generates a full program, wrapping a
// function body as `int main() { <body> }`.
func compile(t *testing.T, body string) string {
	t.Helper()

	src := "int main() { " + body + " }"
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %s", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	out, err := New().Generate(prog)
	if err != nil {
		t.Fatalf("generate error: %s", err)
	}
	return out
}

func mustContain(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestScenarioReturnConstant(t *testing.T) {
	out := compile(t, "return 2;")
	mustContain(t, out, "mov $2, %rax")
	mustContain(t, out, "mov %rbp, %rsp")
	mustContain(t, out, "pop %rbp")
	mustContain(t, out, "ret")
}

func TestScenarioReturnNegation(t *testing.T) {
	out := compile(t, "return -5;")
	mustContain(t, out, "mov $5, %rax\nneg %rax")
}

// return 1 + 2 * 3; — the right operand of '+' evaluates first, and
// within it, the right operand of '*' evaluates first.
func TestScenarioPrecedenceEvaluationOrder(t *testing.T) {
	out := compile(t, "return 1 + 2 * 3;")
	want := "mov $3, %rax\n" +
		"push %rax\n" +
		"mov $2, %rax\n" +
		"pop %rcx\n" +
		"imul %rcx, %rax\n" +
		"push %rax\n" +
		"mov $1, %rax\n" +
		"pop %rcx\n" +
		"add %rcx, %rax\n"
	mustContain(t, out, want)
}

// return 1 || 0; — two fresh labels and the short-circuit skeleton.
func TestScenarioLogicalOrSkeleton(t *testing.T) {
	out := compile(t, "return 1 || 0;")
	mustContain(t, out, ".L0")
	mustContain(t, out, ".L1")
	mustContain(t, out, "cmp $0, %rax\nje .L0")
	mustContain(t, out, "mov $1, %rax\njmp .L1")
	mustContain(t, out, ".L0:\n")
	mustContain(t, out, ".L1:\n")
}

// int a = 3; int b = 4; return a + b; — two slots, right-first
// evaluation order in the final add.
func TestScenarioTwoLocalsAndReturn(t *testing.T) {
	out := compile(t, "int a = 3; int b = 4; return a + b;")

	if n := strings.Count(out, "sub $4, %rsp"); n != 2 {
		t.Fatalf("expected 2 'sub $4, %%rsp' instructions, got %d", n)
	}
	mustContain(t, out, "movl %eax, -4(%rbp)")
	mustContain(t, out, "movl %eax, -8(%rbp)")

	// return loads b (right operand) then a (left operand).
	want := "movl -8(%rbp), %eax\n" +
		"push %rax\n" +
		"xor %rax, %rax\n" +
		"movl -4(%rbp), %eax\n" +
		"pop %rcx\n" +
		"add %rcx, %rax\n"
	mustContain(t, out, want)
}

func TestScenarioDeclareAssignReturn(t *testing.T) {
	out := compile(t, "int a; a = 7; return a;")

	if n := strings.Count(out, "sub $4, %rsp"); n != 1 {
		t.Fatalf("expected exactly 1 'sub $4, %%rsp', got %d", n)
	}
	mustContain(t, out, "mov $7, %rax\nmovl %eax, -4(%rbp)")
	mustContain(t, out, "movl -4(%rbp), %eax")
}

// k declared locals must produce exactly k 'sub $4, %rsp' instructions.
func TestPropertyOneSubPerDeclaration(t *testing.T) {
	out := compile(t, "int a; int b; int c; return a + b + c;")
	if n := strings.Count(out, "sub $4, %rsp"); n != 3 {
		t.Fatalf("expected 3 'sub $4, %%rsp' instructions, got %d", n)
	}
}

// Exactly one .globl and one push/mov prologue per function.
func TestPropertyOneProloguePerFunction(t *testing.T) {
	out := compile(t, "return 0;")

	if n := strings.Count(out, ".globl "); n != 1 {
		t.Fatalf("expected exactly one .globl line, got %d", n)
	}
	mustContain(t, out, "push %rbp\nmov %rsp, %rbp")
}

// `int x;` emits one sub and no initializer move.
func TestPropertyBareDeclarationHasNoInitializerMove(t *testing.T) {
	out := compile(t, "int x; return 0;")
	if n := strings.Count(out, "sub $4, %rsp"); n != 1 {
		t.Fatalf("expected exactly 1 sub, got %d", n)
	}
	if strings.Contains(out, "movl %eax, -4(%rbp)") {
		t.Fatalf("did not expect an initializer store for a bare declaration")
	}
}

// Fall-through and an explicit `return 0;` both end in `ret`.
func TestPropertyFallThroughAndExplicitReturnBothEndInRet(t *testing.T) {
	fallThrough := compile(t, "")
	explicit := compile(t, "return 0;")

	if !strings.HasSuffix(strings.TrimRight(fallThrough, "\n"), "ret") {
		t.Fatalf("expected fall-through body to end in ret, got:\n%s", fallThrough)
	}
	if !strings.HasSuffix(strings.TrimRight(explicit, "\n"), "ret") {
		t.Fatalf("expected explicit return to end in ret, got:\n%s", explicit)
	}
}

// Every label emitted must appear as a jump target, and vice versa -
// checked for a program exercising both && and ||.
func TestPropertyNoLabelsDangle(t *testing.T) {
	out := compile(t, "return 1 || 0 && 1;")

	labelLines := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, ".L") && strings.HasSuffix(line, ":") {
			labelLines[strings.TrimSuffix(line, ":")] = true
		}
	}
	if len(labelLines) == 0 {
		t.Fatalf("expected at least one label to be emitted")
	}
	for label := range labelLines {
		if !strings.Contains(out, "jmp "+label) && !strings.Contains(out, "je "+label) && !strings.Contains(out, "jne "+label) {
			t.Errorf("label %s is never jumped to", label)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && (fields[0] == "jmp" || fields[0] == "je" || fields[0] == "jne") {
			if !labelLines[fields[1]] {
				t.Errorf("jump target %s is never emitted as a label", fields[1])
			}
		}
	}
}

// Compiling the same source twice must produce byte-identical output.
func TestPropertyDeterministic(t *testing.T) {
	src := "int a = 1; int b = 2; return a + b * (a - b);"
	first := compile(t, src)
	second := compile(t, src)
	if first != second {
		t.Fatalf("expected deterministic output, got:\n---\n%s\n---\n%s", first, second)
	}
}

// In a || b, if a evaluates non-zero the generated jump structure
// must skip over b's block.
func TestPropertyShortCircuitOrSkeleton(t *testing.T) {
	out := compile(t, "return 1 || 0;")
	mustContain(t, out, "je .L0")
	mustContain(t, out, "jmp .L1")
}

// --- error cases (semantic errors, detected in codegen) ---

func TestAssignToNonVariableIsAnError(t *testing.T) {
	src := "int main() { 1 = 2; }"
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		t.Fatalf("unexpected lex error: %s", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	if _, err := New().Generate(prog); err == nil {
		t.Fatalf("expected an error assigning to a non-variable")
	}
}

func TestUndeclaredVariableIsAnError(t *testing.T) {
	src := "int main() { return x; }"
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		t.Fatalf("unexpected lex error: %s", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	if _, err := New().Generate(prog); err == nil {
		t.Fatalf("expected an error referencing an undeclared variable")
	}
}

func TestRedeclarationIsAnError(t *testing.T) {
	src := "int main() { int x; int x; return x; }"
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		t.Fatalf("unexpected lex error: %s", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	if _, err := New().Generate(prog); err == nil {
		t.Fatalf("expected a redeclaration error")
	}
}

// Labels must never collide across multiple functions compiled by one
// Generator instance.
func TestLabelCounterIsNotResetBetweenFunctions(t *testing.T) {
	toks, err := lexer.New("int a() { return 1 || 0; } int b() { return 1 && 0; }").Tokenize()
	if err != nil {
		t.Fatalf("unexpected lex error: %s", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	out, err := New().Generate(prog)
	if err != nil {
		t.Fatalf("unexpected generate error: %s", err)
	}
	for _, label := range []string{".L0", ".L1", ".L2", ".L3"} {
		mustContain(t, out, label)
	}
}
