package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/assembler"
	"github.com/shibukawa/snaplll/compiler"
	"github.com/shibukawa/snaplll/evm"
	"github.com/shibukawa/snaplll/markdownparser"
)

// RunCmd represents the run command
type RunCmd struct {
	Input string   `arg:"" help:"Source file (.lll or .md)"`
	LLL   bool     `name:"lll" help:"Treat the input as plain LLL without the sugar layer"`
	Data  string   `help:"Hex call data for the runtime code"`
	Call  string   `help:"Function to call; builds call data from --arg values"`
	Args  []string `name:"arg" help:"Word argument for --call (repeatable)"`
}

// Run executes the run command
func (cmd *RunCmd) Run(ctx *Context) error {
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

	input, err := cmd.callData(res)
	if err != nil {
		return err
	}

	s, err := newSession(config, res.Code)
	if err != nil {
		return err
	}

	out, err := s.vm.Execute(s.runtime, input)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	if out.Reverted {
		ctx.warn("reverted")
	}

	for i, l := range out.Logs {
		topics := make([]string, len(l.Topics))
		for j := range l.Topics {
			topics[j] = l.Topics[j].Hex()
		}

		ctx.info("log %d: topics=[%s] data=0x%s", i, strings.Join(topics, " "), assembler.Hex(l.Data))
	}

	ctx.info("gas used: %d", out.GasUsed)
	fmt.Fprintf(ctx.out(), "0x%s\n", assembler.Hex(out.ReturnData))

	return nil
}

func (cmd *RunCmd) callData(res *compiler.Result) ([]byte, error) {
	if cmd.Call == "" {
		return assembler.DecodeHex(cmd.Data)
	}

	fn, err := lookupFunction(res.Program, cmd.Call)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(cmd.Args))
	for i, a := range cmd.Args {
		args[i] = a
	}

	return encodeCall(fn, args)
}

// session is a deployed contract on a fresh reference VM
type session struct {
	vm      *evm.VM
	runtime []byte
}

func newSession(config *snaplll.Config, code []byte) (*session, error) {
	vmCtx, err := vmContext(config)
	if err != nil {
		return nil, err
	}

	vm := evm.New(vmCtx, config.Run.Gas)

	runtime, err := vm.Deploy(code)
	if err != nil {
		return nil, fmt.Errorf("deployment failed: %w", err)
	}

	return &session{vm: vm, runtime: runtime}, nil
}

// TestCmd represents the test command
type TestCmd struct {
	Inputs []string `arg:"" help:"Literate Markdown programs with a Test Cases section"`
}

// Run executes the test command. Cases of one document share a deployed
// contract, so storage written by one case is visible to the next.
func (cmd *TestCmd) Run(ctx *Context) error {
	opts, config, err := compileOptions(ctx, false)
	if err != nil {
		return err
	}

	failed := 0

	for _, path := range cmd.Inputs {
		src, err := readSource(path)
		if err != nil {
			return err
		}

		if src.Doc == nil || len(src.Doc.TestCases) == 0 {
			return fmt.Errorf("%w: %s", ErrNoTestCases, path)
		}

		res, err := compileUntil(ctx, src, opts, compiler.StageAssemble)
		if err != nil {
			return err
		}

		s, err := newSession(config, res.Code)
		if err != nil {
			return err
		}

		for _, tc := range src.Doc.TestCases {
			if err := s.check(res, tc); err != nil {
				failed++

				if !ctx.Quiet {
					fmt.Fprintf(ctx.out(), "%s %s: %s (line %d): %v\n", color.RedString("FAIL"), path, tc.Name, tc.Line, err)
				}

				continue
			}

			if !ctx.Quiet {
				fmt.Fprintf(ctx.out(), "%s %s: %s\n", color.GreenString("PASS"), path, tc.Name)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d failed", ErrTestsFailed, failed)
	}

	return nil
}

func (s *session) check(res *compiler.Result, tc markdownparser.TestCase) error {
	var input []byte

	if tc.Call != "" {
		fn, err := lookupFunction(res.Program, tc.Call)
		if err != nil {
			return err
		}

		input, err = encodeCall(fn, tc.Args)
		if err != nil {
			return err
		}
	}

	out, err := s.vm.Execute(s.runtime, input)
	if err != nil {
		return err
	}

	switch {
	case out.Reverted && !tc.Reverts:
		return ErrUnexpectedRevert
	case !out.Reverted && tc.Reverts:
		return ErrMissingRevert
	case tc.Expect == nil:
		return nil
	}

	want, err := parseWord(tc.Expect)
	if err != nil {
		return err
	}

	if got := out.Word(); !got.Eq(want) {
		return fmt.Errorf("%w: got %s, want %s", ErrWrongResult, got.Dec(), want.Dec())
	}

	return nil
}
