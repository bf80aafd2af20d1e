package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/shibukawa/snaplll"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool

	Stdout io.Writer
}

// LoadConfig loads the configuration named by --config
func (c *Context) LoadConfig() (*snaplll.Config, error) {
	config, err := snaplll.LoadConfig(c.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return config, nil
}

func (c *Context) out() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}

	return c.Stdout
}

// info prints verbose progress
func (c *Context) info(format string, args ...any) {
	if c.Verbose && !c.Quiet {
		color.Cyan(format, args...)
	}
}

// warn prints a warning unless quiet
func (c *Context) warn(format string, args ...any) {
	if !c.Quiet {
		color.Yellow(format, args...)
	}
}

// success prints a success message unless quiet
func (c *Context) success(format string, args ...any) {
	if !c.Quiet {
		color.Green(format, args...)
	}
}

// CLI represents the command-line interface
var CLI struct {
	Config        string           `help:"Configuration file path" default:"snaplll.yaml"`
	Verbose       bool             `help:"Enable verbose output" short:"v"`
	Quiet         bool             `help:"Suppress output" short:"q"`
	Compile       CompileCmd       `cmd:"" help:"Compile a program to machine code"`
	Rewrite       RewriteCmd       `cmd:"" help:"Print the program rewritten to plain LLL"`
	Flatten       FlattenCmd       `cmd:"" help:"Print the flat instruction tokens before assembly"`
	Assemble      AssembleCmd      `cmd:"" help:"Assemble instruction tokens into machine code"`
	Deserialize   DeserializeCmd   `cmd:"" help:"Turn hex machine code back into instruction tokens"`
	Format        FormatCmd        `cmd:"" help:"Format LLL source files"`
	Signature     SignatureCmd     `cmd:"" help:"Print the extern declaration for a program"`
	FullSignature FullSignatureCmd `cmd:"" name:"full-signature" help:"Print the full ABI of a program"`
	Prefix        PrefixCmd        `cmd:"" help:"Print the 4-byte selector of a function signature"`
	Run           RunCmd           `cmd:"" help:"Compile a program and execute it on the reference VM"`
	Test          TestCmd          `cmd:"" help:"Run the test cases of literate Markdown programs"`
	Version       VersionCmd       `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.out(), "snaplll v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("snaplll"),
		kong.Description("Compiler for the LLL language and its sugar layer"),
	)

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Stdout:  os.Stdout,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
