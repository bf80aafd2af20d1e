package main

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/abi"
	"github.com/shibukawa/snaplll/evm"
	"github.com/shibukawa/snaplll/preprocess"
	"github.com/shibukawa/snaplll/word"
)

// vmContext builds the execution context of the reference VM from the run
// section of the configuration.
func vmContext(config *snaplll.Config) (evm.Context, error) {
	var ctx evm.Context

	for _, f := range []struct {
		value string
		dst   *uint256.Int
	}{
		{config.Run.Address, &ctx.Address},
		{config.Run.Caller, &ctx.Caller},
	} {
		if f.value == "" {
			continue
		}

		v, err := parseWord(f.value)
		if err != nil {
			return evm.Context{}, err
		}

		f.dst.Set(v)
	}

	ctx.Origin.Set(&ctx.Caller)
	ctx.GasLimit.SetUint64(config.Run.Gas)

	return ctx, nil
}

// parseWord reads a decimal or 0x-hex word. YAML numbers arrive as Go
// integers and are printed first.
func parseWord(v any) (*uint256.Int, error) {
	s := strings.TrimSpace(fmt.Sprint(v))

	w, err := word.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBadArgument, s, err)
	}

	return w, nil
}

func lookupFunction(prog *preprocess.Program, name string) (*abi.Function, error) {
	if prog != nil {
		if fn, ok := prog.Functions[name]; ok {
			return fn, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
}

// encodeCall builds call data for fn: the selector followed by one word per
// argument. Only fixed-word arguments can be encoded this way.
func encodeCall(fn *abi.Function, args []any) ([]byte, error) {
	if len(args) != len(fn.ArgTypes) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, fn.Signature(), len(fn.ArgTypes), len(args))
	}

	out := append([]byte(nil), fn.Selector[:]...)

	for i, a := range args {
		if fn.ArgTypes[i].IsVariable() {
			return nil, fmt.Errorf("%w: argument %d of %s", ErrVariableArgument, i+1, fn.Signature())
		}

		w, err := parseWord(a)
		if err != nil {
			return nil, err
		}

		b := w.Bytes32()
		out = append(out, b[:]...)
	}

	return out, nil
}

// parseSignature splits "name(type,type)" into its name and type names.
func parseSignature(sig string) (string, []string, error) {
	sig = strings.ReplaceAll(sig, " ", "")

	open := strings.IndexByte(sig, '(')
	if open <= 0 || !strings.HasSuffix(sig, ")") {
		return "", nil, fmt.Errorf("%w: %q", ErrBadSignature, sig)
	}

	inner := sig[open+1 : len(sig)-1]
	if inner == "" {
		return sig[:open], nil, nil
	}

	types := strings.Split(inner, ",")
	for i, t := range types {
		if t == "" {
			return "", nil, fmt.Errorf("%w: %q", ErrBadSignature, sig)
		}

		types[i] = abi.ParseType(t).Name
	}

	return sig[:open], types, nil
}
