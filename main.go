// This is the main-driver for our compiler.

package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/skx/unicc/ast"
	"github.com/skx/unicc/codegen"
	"github.com/skx/unicc/lexer"
	"github.com/skx/unicc/parser"
)

func main() {

	//
	// Look for flags.
	//
	lexOnly := flag.Bool("lex", false, "Dump the token sequence and exit.")
	parseOnly := flag.Bool("parse", false, "Dump the parsed AST and exit.")
	compileFlag := flag.Bool("compile", false, "Assemble and link the program, via invoking cc.")
	program := flag.String("o", "a.out", "The executable to write, with -compile.")
	run := flag.Bool("run", false, "Run the binary, post-compile.")
	flag.Parse()

	//
	// Flags may also follow the source path, so keep parsing after
	// each positional argument.
	//
	var args []string
	for flag.NArg() > 0 {
		args = append(args, flag.Arg(0))
		flag.CommandLine.Parse(flag.Args()[1:])
	}

	//
	// If we're running we're also compiling.
	//
	if *run {
		*compileFlag = true
	}

	//
	// Ensure we have a single source file as our argument.
	//
	if len(args) != 1 {
		fmt.Printf("Usage: unicc <path> [-lex | -parse]\n")
		os.Exit(0)
	}
	path := args[0]

	//
	// Read the source from disk.
	//
	contents, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading %s: %s\n", path, err)
		os.Exit(1)
	}

	//
	// Lex.
	//
	tokens, err := lexer.New(string(contents)).Tokenize()
	if err != nil {
		fmt.Printf("Error lexing %s: %s\n", path, err)
		os.Exit(1)
	}

	if *lexOnly {
		for _, tok := range tokens {
			fmt.Printf("%s %q\n", tok.Type, tok.Literal)
		}
		return
	}

	//
	// Parse.
	//
	prog, err := parser.Parse(tokens)
	if err != nil {
		fmt.Printf("Error parsing %s: %s\n", path, err)
		os.Exit(1)
	}

	if *parseOnly {
		fmt.Print(ast.Dump(prog))
		return
	}

	//
	// Generate.
	//
	out, err := codegen.New().Generate(prog)
	if err != nil {
		fmt.Printf("Error compiling %s: %s\n", path, err)
		os.Exit(1)
	}

	//
	// If we're not assembling/linking the text which was produced
	// then we just write the assembly to STDOUT, and terminate.
	//
	if !*compileFlag {
		fmt.Printf("%s", out)
		return
	}

	//
	// OK we're assembling and linking the program, via the host
	// compiler driver. Assembling and linking are not our job - we
	// just shell out to whatever "cc" is on the caller's PATH.
	//
	cc := exec.Command("cc", "-static", "-o", *program, "-x", "assembler", "-")
	cc.Stdout = os.Stdout
	cc.Stderr = os.Stderr

	var b bytes.Buffer
	b.WriteString(out)
	cc.Stdin = &b

	if err := cc.Run(); err != nil {
		fmt.Printf("Error invoking the assembler/linker: %s\n", err)
		os.Exit(1)
	}

	//
	// Running the binary too?
	//
	if *run {
		exe := exec.Command(*program)
		exe.Stdout = os.Stdout
		exe.Stderr = os.Stderr
		if err := exe.Run(); err != nil {
			fmt.Printf("Error launching %s: %s\n", *program, err)
			os.Exit(1)
		}
	}
}
