package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/shibukawa/snaplll/abi"
	"github.com/shibukawa/snaplll/compiler"
	"github.com/shibukawa/snaplll/hashing"
	"github.com/shibukawa/snaplll/preprocess"
)

// SignatureCmd represents the signature command
type SignatureCmd struct {
	Input string `arg:"" help:"Source file (.lll or .md)"`
	Name  string `help:"Extern name (default: file name without extension)"`
}

// Run executes the signature command
func (cmd *SignatureCmd) Run(ctx *Context) error {
	prog, err := scanProgram(ctx, cmd.Input)
	if err != nil {
		return err
	}

	name := cmd.Name
	if name == "" {
		base := filepath.Base(cmd.Input)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	fmt.Fprintln(ctx.out(), abi.Signature(name, prog.FunctionList))

	return nil
}

// FullSignatureCmd represents the full-signature command
type FullSignatureCmd struct {
	Input  string `arg:"" help:"Source file (.lll or .md)"`
	Format string `help:"Output format" enum:"json,yaml" default:"json"`
}

// Run executes the full-signature command
func (cmd *FullSignatureCmd) Run(ctx *Context) error {
	prog, err := scanProgram(ctx, cmd.Input)
	if err != nil {
		return err
	}

	var out string

	switch cmd.Format {
	case "json":
		out, err = abi.FullSignatureJSON(prog.FunctionList, prog.EventList)
	case "yaml":
		var data []byte
		data, err = yaml.Marshal(abi.FullSignature(prog.FunctionList, prog.EventList))
		out = strings.TrimRight(string(data), "\n")
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, cmd.Format)
	}

	if err != nil {
		return fmt.Errorf("failed to render signature: %w", err)
	}

	fmt.Fprintln(ctx.out(), out)

	return nil
}

// PrefixCmd represents the prefix command
type PrefixCmd struct {
	Signature string `arg:"" help:"Function signature such as transfer(address,int256)"`
}

// Run executes the prefix command
func (cmd *PrefixCmd) Run(ctx *Context) error {
	name, types, err := parseSignature(cmd.Signature)
	if err != nil {
		return err
	}

	ctx.info("Signature: %s", hashing.Signature(name, types))
	fmt.Fprintf(ctx.out(), "0x%08x\n", hashing.SelectorValue(name, types))

	return nil
}

// scanProgram reads and preprocesses a program without compiling it
func scanProgram(ctx *Context, path string) (*preprocess.Program, error) {
	opts, _, err := compileOptions(ctx, false)
	if err != nil {
		return nil, err
	}

	src, err := readSource(path)
	if err != nil {
		return nil, err
	}

	res, err := compileUntil(ctx, src, opts, compiler.StagePreprocess)
	if err != nil {
		return nil, err
	}

	return res.Program, nil
}
