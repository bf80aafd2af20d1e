package compiler

import (
	"fmt"
	"sync"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/assembler"
	"github.com/shibukawa/snaplll/codegen"
	"github.com/shibukawa/snaplll/lllparser"
	"github.com/shibukawa/snaplll/preprocess"
	"github.com/shibukawa/snaplll/rewriter"
	"github.com/shibukawa/snaplll/tree"
)

var defaultLibrary = sync.OnceValue(rewriter.NewLibrary)

// Options control one compilation.
type Options struct {
	FoldConstants    bool
	WarningsAsErrors bool
	TempPrefix       string

	// RawLLL skips declaration scanning and the sugar layer.
	RawLLL bool

	// Library overrides the built-in rewrite tables. Nil uses a shared default.
	Library *rewriter.Library
}

// DefaultOptions returns the options used when no configuration exists.
func DefaultOptions() Options {
	return Options{FoldConstants: true}
}

// OptionsFromConfig maps the compiler section of a configuration file.
func OptionsFromConfig(cfg *snaplll.Config) Options {
	if cfg == nil {
		return DefaultOptions()
	}

	return Options{
		FoldConstants:    cfg.Compiler.ShouldFoldConstants(),
		WarningsAsErrors: cfg.Compiler.WarningsAsErrors,
		TempPrefix:       cfg.Compiler.TempPrefix,
	}
}

// Result is everything a compilation produced. Fields of stages that did
// not run are empty.
type Result struct {
	Program   *preprocess.Program
	Rewritten *tree.Node
	Tokens    []codegen.Token
	Code      []byte
	Warnings  []snaplll.Warning
}

// Hex returns the machine code as a hex string.
func (r *Result) Hex() string {
	return assembler.Hex(r.Code)
}

// Compile runs the full pipeline on a parsed tree.
func Compile(root *tree.Node, opts Options) (*Result, error) {
	return Run(DefaultPipeline(), root, opts)
}

// CompileSource parses LLL text and compiles it.
func CompileSource(src, file string, opts Options) (*Result, error) {
	root, err := lllparser.Parse(src, file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}

	return Compile(root, opts)
}

// Run executes p on root. The partial result is returned alongside an
// error so callers can still report warnings.
func Run(p *Pipeline, root *tree.Node, opts Options) (*Result, error) {
	ctx := &Context{
		Source:   root,
		Options:  opts,
		Warnings: &snaplll.Warnings{},
	}

	err := p.Execute(ctx)

	return &Result{
		Program:   ctx.Program,
		Rewritten: ctx.Rewritten,
		Tokens:    ctx.Tokens,
		Code:      ctx.Code,
		Warnings:  ctx.Warnings.List(),
	}, err
}
