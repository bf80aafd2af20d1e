package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shibukawa/snaplll/formatter"
)

// FormatCmd represents the format command
type FormatCmd struct {
	Input string `arg:"" optional:"" help:"Input file or directory (default: stdin)"`
	Write bool   `short:"w" help:"Write result to input file instead of stdout"`
	Check bool   `short:"c" help:"Check if files are formatted (exit 1 if not)"`
}

// Run executes the format command
func (cmd *FormatCmd) Run(ctx *Context) error {
	if cmd.Input == "" || cmd.Input == "-" {
		input, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		return cmd.format(ctx, string(input), "<stdin>")
	}

	info, err := os.Stat(cmd.Input)
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}

	if info.IsDir() {
		return cmd.formatDirectory(ctx, cmd.Input)
	}

	return cmd.formatFile(ctx, cmd.Input)
}

// format formats one document and writes it according to the flags
func (cmd *FormatCmd) format(ctx *Context, input, filename string) error {
	var (
		formatted string
		err       error
	)

	if formatter.IsMarkdownFile(filename) {
		formatted, err = formatter.NewMarkdownFormatter().Format(input)
		formatted += "\n"
	} else {
		formatted, err = formatter.NewLLLFormatter().Format(input)
	}

	if err != nil {
		return fmt.Errorf("failed to format %s: %w", filename, err)
	}

	if cmd.Check {
		if strings.TrimSpace(input) != strings.TrimSpace(formatted) {
			ctx.warn("%s is not formatted", filename)
			return ErrFileNotFormatted
		}

		return nil
	}

	if cmd.Write && filename != "<stdin>" {
		return writeFile(filename, []byte(formatted))
	}

	_, err = io.WriteString(ctx.out(), formatted)

	return err
}

func (cmd *FormatCmd) formatFile(ctx *Context, filename string) error {
	input, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return cmd.format(ctx, string(input), filename)
}

// formatDirectory formats all LLL and Markdown files in a directory recursively
func (cmd *FormatCmd) formatDirectory(ctx *Context, dirPath string) error {
	var hasErrors bool

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() || !isSourceFile(path) {
			return nil
		}

		err = cmd.formatFile(ctx, path)
		if err != nil {
			if !ctx.Quiet {
				fmt.Fprintf(os.Stderr, "Error formatting %s: %v\n", path, err)
			}

			hasErrors = true

			return nil
		}

		if cmd.Write {
			ctx.info("Formatted: %s", path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	if hasErrors {
		return ErrFormattingErrors
	}

	return nil
}

func isSourceFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".lll" || ext == ".se" || ext == ".md"
}
