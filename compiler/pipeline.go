// Package compiler ties the backend stages into one pipeline: declaration
// scan, rewriting, flattening and assembly.
package compiler

import (
	"fmt"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/assembler"
	"github.com/shibukawa/snaplll/codegen"
	"github.com/shibukawa/snaplll/preprocess"
	"github.com/shibukawa/snaplll/rewriter"
	"github.com/shibukawa/snaplll/tree"
)

// Stage names
const (
	StagePreprocess = "preprocess"
	StageRewrite    = "rewrite"
	StageWarnings   = "warnings"
	StageFlatten    = "flatten"
	StageAssemble   = "assemble"
)

// Stage defines the interface for pipeline stages
type Stage interface {
	Process(ctx *Context) error
	Name() string
}

// Context holds the state handed from stage to stage
type Context struct {
	Source   *tree.Node
	Options  Options
	Warnings *snaplll.Warnings

	// Processing results
	Program   *preprocess.Program
	Engine    *rewriter.Engine
	Rewritten *tree.Node
	Tokens    []codegen.Token
	Code      []byte
}

// Pipeline runs stages in order and stops at the first failure
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline from the given stages
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// DefaultPipeline returns the full compilation pipeline
func DefaultPipeline() *Pipeline {
	return NewPipeline(
		&PreprocessStage{},
		&RewriteStage{},
		&WarningStage{},
		&FlattenStage{},
		&AssembleStage{},
	)
}

// AddStage appends a stage to the pipeline
func (p *Pipeline) AddStage(stage Stage) {
	p.stages = append(p.stages, stage)
}

// Until returns a copy of the pipeline that ends with the named stage.
// An unknown name keeps every stage.
func (p *Pipeline) Until(name string) *Pipeline {
	for i, s := range p.stages {
		if s.Name() == name {
			return NewPipeline(p.stages[:i+1]...)
		}
	}

	return NewPipeline(p.stages...)
}

// Execute runs each stage against ctx
func (p *Pipeline) Execute(ctx *Context) error {
	if ctx.Warnings == nil {
		ctx.Warnings = &snaplll.Warnings{}
	}

	for _, stage := range p.stages {
		err := stage.Process(ctx)
		if err != nil {
			return fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}
	}

	return nil
}

// PreprocessStage scans declarations and builds the dispatch wrapper.
// Plain LLL input has no declarations and skips it.
type PreprocessStage struct{}

func (s *PreprocessStage) Name() string { return StagePreprocess }

func (s *PreprocessStage) Process(ctx *Context) error {
	if ctx.Options.RawLLL {
		return nil
	}

	prog, err := preprocess.Process(ctx.Source, ctx.Warnings)
	if err != nil {
		return err
	}

	ctx.Program = prog

	return nil
}

// RewriteStage expands the program into plain LLL, folds and validates it.
type RewriteStage struct{}

func (s *RewriteStage) Name() string { return StageRewrite }

func (s *RewriteStage) Process(ctx *Context) error {
	lib := ctx.Options.Library
	if lib == nil {
		lib = defaultLibrary()
	}

	ctx.Engine = rewriter.New(lib, ctx.Program, ctx.Warnings, rewriter.Options{
		FoldConstants: ctx.Options.FoldConstants,
		TempPrefix:    ctx.Options.TempPrefix,
	})

	var (
		out *tree.Node
		err error
	)

	if ctx.Program == nil {
		out, err = ctx.Engine.RewriteLLL(ctx.Source)
	} else {
		out, err = ctx.Engine.Rewrite()
	}

	if err != nil {
		return err
	}

	ctx.Rewritten = out

	return nil
}

// WarningStage promotes the first warning to an error when configured to.
type WarningStage struct{}

func (s *WarningStage) Name() string { return StageWarnings }

func (s *WarningStage) Process(ctx *Context) error {
	if !ctx.Options.WarningsAsErrors {
		return nil
	}

	return ctx.Warnings.AsError()
}

// FlattenStage linearizes the rewritten tree into tokens.
type FlattenStage struct{}

func (s *FlattenStage) Name() string { return StageFlatten }

func (s *FlattenStage) Process(ctx *Context) error {
	var names *tree.NameGen
	if ctx.Engine != nil {
		names = ctx.Engine.Names()
	}

	tokens, err := codegen.Flatten(ctx.Rewritten, names)
	if err != nil {
		return err
	}

	ctx.Tokens = tokens

	return nil
}

// AssembleStage resolves labels and serializes the tokens.
type AssembleStage struct{}

func (s *AssembleStage) Name() string { return StageAssemble }

func (s *AssembleStage) Process(ctx *Context) error {
	code, err := assembler.Assemble(ctx.Tokens)
	if err != nil {
		return err
	}

	ctx.Code = code

	return nil
}
