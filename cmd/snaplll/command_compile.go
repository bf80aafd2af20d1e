package main

import (
	"fmt"

	"github.com/shibukawa/snaplll/assembler"
	"github.com/shibukawa/snaplll/codegen"
	"github.com/shibukawa/snaplll/compiler"
	"github.com/shibukawa/snaplll/formatter"
)

// CompileCmd represents the compile command
type CompileCmd struct {
	Input  string `arg:"" optional:"" help:"Source file (.lll or .md), stdin when omitted"`
	LLL    bool   `name:"lll" help:"Treat the input as plain LLL without the sugar layer"`
	Binary bool   `help:"Write raw bytes instead of hex"`
	Out    string `short:"o" help:"Output file (default: stdout)"`
}

// Run executes the compile command
func (cmd *CompileCmd) Run(ctx *Context) error {
	opts, config, err := compileOptions(ctx, cmd.LLL)
	if err != nil {
		return err
	}

	src, err := readSource(cmd.Input)
	if err != nil {
		return err
	}

	res, err := compileUntil(ctx, src, opts, compiler.StageAssemble)
	if err != nil {
		return err
	}

	binary := cmd.Binary || config.Output.Format == "binary"

	data := res.Code
	if !binary {
		data = []byte(res.Hex() + "\n")
	}

	if cmd.Out == "" {
		_, err = ctx.out().Write(data)
		return err
	}

	path := outputPath(config, cmd.Out)
	if err := writeFile(path, data); err != nil {
		return err
	}

	ctx.success("Compiled %s to %s (%d bytes)", src.Name, path, len(res.Code))

	return nil
}

// RewriteCmd represents the rewrite command
type RewriteCmd struct {
	Input string `arg:"" optional:"" help:"Source file (.lll or .md), stdin when omitted"`
	LLL   bool   `name:"lll" help:"Treat the input as plain LLL without the sugar layer"`
}

// Run executes the rewrite command
func (cmd *RewriteCmd) Run(ctx *Context) error {
	opts, _, err := compileOptions(ctx, cmd.LLL)
	if err != nil {
		return err
	}

	src, err := readSource(cmd.Input)
	if err != nil {
		return err
	}

	res, err := compileUntil(ctx, src, opts, compiler.StageRewrite)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.out(), formatter.NewLLLFormatter().FormatNode(res.Rewritten))

	return nil
}

// FlattenCmd represents the flatten command
type FlattenCmd struct {
	Input string `arg:"" optional:"" help:"Source file (.lll or .md), stdin when omitted"`
	LLL   bool   `name:"lll" help:"Treat the input as plain LLL without the sugar layer"`
}

// Run executes the flatten command
func (cmd *FlattenCmd) Run(ctx *Context) error {
	opts, _, err := compileOptions(ctx, cmd.LLL)
	if err != nil {
		return err
	}

	src, err := readSource(cmd.Input)
	if err != nil {
		return err
	}

	res, err := compileUntil(ctx, src, opts, compiler.StageFlatten)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.out(), codegen.Format(res.Tokens))

	return nil
}

// AssembleCmd represents the assemble command
type AssembleCmd struct {
	Input string `arg:"" optional:"" help:"File of whitespace separated tokens, stdin when omitted"`
}

// Run executes the assemble command
func (cmd *AssembleCmd) Run(ctx *Context) error {
	src, err := readSource(cmd.Input)
	if err != nil {
		return err
	}

	tokens, err := codegen.ParseTokens(src.Text)
	if err != nil {
		return err
	}

	ctx.info("Label width: %d bytes", assembler.Width(tokens))

	code, err := assembler.Assemble(tokens)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.out(), assembler.Hex(code))

	return nil
}

// DeserializeCmd represents the deserialize command
type DeserializeCmd struct {
	Code string `arg:"" help:"Hex machine code"`
}

// Run executes the deserialize command
func (cmd *DeserializeCmd) Run(ctx *Context) error {
	code, err := assembler.DecodeHex(cmd.Code)
	if err != nil {
		return err
	}

	tokens, err := assembler.Deserialize(code)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.out(), codegen.Format(tokens))

	return nil
}
