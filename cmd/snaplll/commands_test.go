package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
)

const rawProgram = "(seq (mstore 0 (add 40 2)) (~return 0 32))"

const counterDoc = `# Counter

## Code

` + "```lll" + `
(data counter)
(def (init) (set self.counter 10))
(def (inc) (+= self.counter 1) (return self.counter))
(def (sum x y) (return (+ x y)))
` + "```" + `

## Test Cases

` + "```yaml" + `
- call: inc
  expect: 11
- call: inc
  expect: 12
- call: sum
  args: [40, "0x02"]
  expect: 42
` + "```" + `
`

// newTestContext returns a context that writes to a buffer and reads no
// configuration file.
func newTestContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	return &Context{
		Config: filepath.Join(t.TempDir(), "missing.yaml"),
		Quiet:  true,
		Stdout: &buf,
	}, &buf
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestCompileCmd(t *testing.T) {
	input := writeTemp(t, "raw.lll", rawProgram)

	t.Run("hex to stdout", func(t *testing.T) {
		ctx, buf := newTestContext(t)

		cmd := &CompileCmd{Input: input, LLL: true}
		require.NoError(t, cmd.Run(ctx))
		assert.Equal(t, "602a5f5260205ff3\n", buf.String())
	})

	t.Run("binary to file", func(t *testing.T) {
		ctx, _ := newTestContext(t)
		out := filepath.Join(t.TempDir(), "out", "raw.bin")

		cmd := &CompileCmd{Input: input, LLL: true, Binary: true, Out: out}
		require.NoError(t, cmd.Run(ctx))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x60, 0x2a, 0x5f, 0x52, 0x60, 0x20, 0x5f, 0xf3}, data)
	})

	t.Run("missing file", func(t *testing.T) {
		ctx, _ := newTestContext(t)

		cmd := &CompileCmd{Input: filepath.Join(t.TempDir(), "nothing.lll")}
		assert.Error(t, cmd.Run(ctx))
	})
}

func TestInspectionCmds(t *testing.T) {
	input := writeTemp(t, "raw.lll", rawProgram)

	t.Run("rewrite", func(t *testing.T) {
		ctx, buf := newTestContext(t)

		require.NoError(t, (&RewriteCmd{Input: input, LLL: true}).Run(ctx))
		assert.Equal(t, "(seq (mstore 0 42) (~return 0 32))\n", buf.String())
	})

	t.Run("assemble", func(t *testing.T) {
		ctx, buf := newTestContext(t)
		tokens := writeTemp(t, "raw.tok", "42 0 MSTORE 32 0 RETURN")

		require.NoError(t, (&AssembleCmd{Input: tokens}).Run(ctx))
		assert.Equal(t, "602a5f5260205ff3\n", buf.String())
	})

	t.Run("deserialize", func(t *testing.T) {
		ctx, buf := newTestContext(t)

		require.NoError(t, (&DeserializeCmd{Code: "0x6001 610100 00"}).Run(ctx))
		assert.Equal(t, "PUSH1 0x01 PUSH2 0x0100 STOP\n", buf.String())
	})
}

func TestPrefixCmd(t *testing.T) {
	ctx, buf := newTestContext(t)

	require.NoError(t, (&PrefixCmd{Signature: "transfer(address,uint256)"}).Run(ctx))
	assert.Equal(t, "0xa9059cbb\n", buf.String())

	err := (&PrefixCmd{Signature: "transfer"}).Run(ctx)
	assert.True(t, errors.Is(err, ErrBadSignature))
}

func TestSignatureCmds(t *testing.T) {
	input := writeTemp(t, "adder.lll", "(def (sum x y) (return (+ x y)))")

	t.Run("extern name from file", func(t *testing.T) {
		ctx, buf := newTestContext(t)

		require.NoError(t, (&SignatureCmd{Input: input}).Run(ctx))
		assert.True(t, strings.HasPrefix(buf.String(), "extern adder:"))
	})

	t.Run("yaml", func(t *testing.T) {
		ctx, buf := newTestContext(t)

		require.NoError(t, (&FullSignatureCmd{Input: input, Format: "yaml"}).Run(ctx))
		assert.Contains(t, buf.String(), "name: sum")
	})

	t.Run("unknown format", func(t *testing.T) {
		ctx, _ := newTestContext(t)

		err := (&FullSignatureCmd{Input: input, Format: "toml"}).Run(ctx)
		assert.True(t, errors.Is(err, ErrUnknownFormat))
	})
}

func TestRunCmd(t *testing.T) {
	input := writeTemp(t, "double.lll", "(def (double x) (return (* x 2)))")
	fortyTwo := "0x" + strings.Repeat("00", 31) + "2a\n"

	t.Run("call by name", func(t *testing.T) {
		ctx, buf := newTestContext(t)

		require.NoError(t, (&RunCmd{Input: input, Call: "double", Args: []string{"21"}}).Run(ctx))
		assert.Equal(t, fortyTwo, buf.String())
	})

	t.Run("raw program", func(t *testing.T) {
		ctx, buf := newTestContext(t)
		raw := writeTemp(t, "raw.lll", rawProgram)

		require.NoError(t, (&RunCmd{Input: raw, LLL: true}).Run(ctx))
		assert.Equal(t, "0x\n", buf.String())
	})

	t.Run("unknown function", func(t *testing.T) {
		ctx, _ := newTestContext(t)

		err := (&RunCmd{Input: input, Call: "halve"}).Run(ctx)
		assert.True(t, errors.Is(err, ErrUnknownFunction))
	})
}

func TestTestCmd(t *testing.T) {
	t.Run("passing document", func(t *testing.T) {
		ctx, buf := newTestContext(t)
		ctx.Quiet = false
		doc := writeTemp(t, "counter.md", counterDoc)

		require.NoError(t, (&TestCmd{Inputs: []string{doc}}).Run(ctx))
		assert.Equal(t, 3, strings.Count(buf.String(), "PASS"))
	})

	t.Run("failing case", func(t *testing.T) {
		ctx, _ := newTestContext(t)
		doc := writeTemp(t, "counter.md", strings.Replace(counterDoc, "expect: 12", "expect: 13", 1))

		err := (&TestCmd{Inputs: []string{doc}}).Run(ctx)
		assert.True(t, errors.Is(err, ErrTestsFailed))
	})

	t.Run("no cases", func(t *testing.T) {
		ctx, _ := newTestContext(t)
		doc := writeTemp(t, "plain.md", "# Plain\n\n```lll\n(stop)\n```\n")

		err := (&TestCmd{Inputs: []string{doc}}).Run(ctx)
		assert.True(t, errors.Is(err, ErrNoTestCases))
	})
}

func TestFormatCmdCheck(t *testing.T) {
	ctx, _ := newTestContext(t)
	input := writeTemp(t, "messy.lll", "(seq   (stop))")

	err := (&FormatCmd{Input: input, Check: true}).Run(ctx)
	assert.True(t, errors.Is(err, ErrFileNotFormatted))

	require.NoError(t, (&FormatCmd{Input: input, Write: true}).Run(ctx))

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "(seq (stop))\n", string(data))
}
