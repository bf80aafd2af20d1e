package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/compiler"
	"github.com/shibukawa/snaplll/formatter"
	"github.com/shibukawa/snaplll/lllparser"
	"github.com/shibukawa/snaplll/markdownparser"
)

// source is a program read from a file or stdin
type source struct {
	Name string
	Text string
	Doc  *markdownparser.Document // set for literate Markdown input
}

// readSource reads path, or stdin when path is empty or "-". Markdown files
// contribute their lll code blocks.
func readSource(path string) (*source, error) {
	var (
		data []byte
		err  error
		name = path
	)

	if path == "" || path == "-" {
		name = "<stdin>"
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if !formatter.IsMarkdownFile(name) {
		return &source{Name: name, Text: string(data)}, nil
	}

	doc, err := markdownparser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Markdown %s: %w", name, err)
	}

	return &source{Name: name, Text: doc.Source(), Doc: doc}, nil
}

// compileOptions builds compiler options from the configuration file
func compileOptions(ctx *Context, raw bool) (compiler.Options, *snaplll.Config, error) {
	config, err := ctx.LoadConfig()
	if err != nil {
		return compiler.Options{}, nil, err
	}

	opts := compiler.OptionsFromConfig(config)
	opts.RawLLL = raw

	return opts, config, nil
}

// compileUntil parses src and runs the pipeline up to the named stage,
// printing warnings as they are found.
func compileUntil(ctx *Context, src *source, opts compiler.Options, stage string) (*compiler.Result, error) {
	root, err := lllparser.Parse(src.Text, src.Name)
	if err != nil {
		return nil, err
	}

	ctx.info("Compiling %s", src.Name)

	res, err := compiler.Run(compiler.DefaultPipeline().Until(stage), root, opts)
	for _, w := range res.Warnings {
		ctx.warn("%s", w)
	}

	if err != nil {
		return nil, err
	}

	return res, nil
}

// outputPath places relative output paths under the configured directory
func outputPath(config *snaplll.Config, path string) string {
	if filepath.IsAbs(path) || config.Output.Dir == "" || config.Output.Dir == "." {
		return path
	}

	return filepath.Join(config.Output.Dir, path)
}

// writeFile writes content to a file, creating directories if necessary
func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
